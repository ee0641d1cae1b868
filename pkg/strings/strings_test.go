package strings

import (
	"testing"
)

func TestBuilder(t *testing.T) {
	builder := NewBuilder(32)

	builder.WriteString("hello")
	_ = builder.WriteByte(' ')
	builder.WriteRune('w')
	builder.WriteString("orld")

	result := builder.String()
	if result != "hello world" {
		t.Errorf("expected 'hello world', got '%s'", result)
	}

	if builder.Len() != 11 {
		t.Errorf("expected length 11, got %d", builder.Len())
	}
}

func TestBuilderStringIsCopy(t *testing.T) {
	builder := NewBuilder(8)
	builder.WriteString("abc")
	s := builder.String()

	builder.Reset()
	builder.WriteString("xyz")
	if s != "abc" {
		t.Errorf("expected String to be detached from the buffer, got '%s'", s)
	}
}

func TestBuilderGrow(t *testing.T) {
	builder := NewBuilder(2)
	initialCap := builder.Cap()

	builder.Grow(10)
	if builder.Cap() <= initialCap {
		t.Errorf("expected capacity to grow, initial: %d, after: %d", initialCap, builder.Cap())
	}
}

func TestPooledBuildersAreReset(t *testing.T) {
	for _, size := range []BuilderSize{Small, Medium, Large} {
		b := GetBuilder(size)
		b.WriteString("dirty")
		PutBuilder(b, size)

		again := GetBuilder(size)
		if again.Len() != 0 {
			t.Errorf("size %d: expected reset builder, got length %d", size, again.Len())
		}
		PutBuilder(again, size)
	}
}

func TestSizeFor(t *testing.T) {
	tests := []struct {
		n    int
		want BuilderSize
	}{
		{0, Small},
		{1024, Small},
		{1025, Medium},
		{16 * 1024, Medium},
		{16*1024 + 1, Large},
	}

	for _, test := range tests {
		if got := SizeFor(test.n); got != test.want {
			t.Errorf("SizeFor(%d) = %v, expected %v", test.n, got, test.want)
		}
	}
}

func TestConcatAndJoin(t *testing.T) {
	if got := Concat("a", "b", "c"); got != "abc" {
		t.Errorf("Concat = %q", got)
	}
	if got := Concat(); got != "" {
		t.Errorf("Concat() = %q", got)
	}
	if got := JoinPooled([]string{"a", "b", "c"}, ", "); got != "a, b, c" {
		t.Errorf("JoinPooled = %q", got)
	}
	if got := JoinPooled(nil, ","); got != "" {
		t.Errorf("JoinPooled(nil) = %q", got)
	}
}

func TestSprintf(t *testing.T) {
	if got := Sprintf("%s=%d", "cols", 3); got != "cols=3" {
		t.Errorf("Sprintf = %q", got)
	}
	if got := Sprintf("plain"); got != "plain" {
		t.Errorf("Sprintf without args = %q", got)
	}
}
