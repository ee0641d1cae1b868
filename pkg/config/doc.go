// Package config defines csvconf's configuration and loads it from YAML.
//
// A configuration file names the table dialect, logging, where tables are
// loaded from, where decoded datasets are stored, and the slots a pipeline
// run processes:
//
//	table:
//	  separator: ","
//	  multiline: true
//	  header_rows: 2
//	logging:
//	  level: info
//	  encoding: json
//	source:
//	  base_dir: ./tables
//	  http_timeout: 30s
//	  s3:
//	    region: ${AWS_REGION}
//	sink:
//	  kind: postgres
//	  dsn: ${CSVCONF_DSN}
//	  table: config_assets
//	slots:
//	  - name: items
//	    uri: items.csv
//	  - name: levels
//	    uri: s3://config-bucket/levels.csv.gz
//
// ${VAR} references are replaced with environment values before parsing.
// Missing sections take the values from Default.
package config
