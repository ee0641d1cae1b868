// Package csvtable reads and writes the delimited table text used for
// configuration data.
//
// A table is a sequence of rows separated by line breaks. The first row holds
// column names, the second row holds type descriptors, and every following
// row is a record:
//
//	Id,Name,Tags
//	int,string,string[]
//	1,"Sword, long",melee|steel
//
// Cells are separated by a comma (configurable with WithSeparator). A cell
// that begins with a double quote is escaped: the surrounding quotes are
// dropped, a doubled quote stands for one quote, and separators inside the
// quoted span belong to the cell. EncodeRow produces text DecodeRow reads back
// unchanged.
//
// Blank lines are dropped. With multiline parsing enabled (the default), a
// line break inside an escaped cell is cell content rather than a row end.
package csvtable
