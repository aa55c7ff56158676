package fn

import (
	"errors"
	"testing"
)

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatalf("got %d, %v", v, err)
	}

	e := Err[int](errors.New("boom"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
	v, err = e.Unwrap()
	if v != 0 {
		t.Fatal("Err value should be zero")
	}
	if err == nil || err.Error() != "boom" {
		t.Fatalf("got %v", err)
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("bad %s: %d", "thing", 7)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "bad thing: 7" {
		t.Fatalf("got %v", err)
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok("a").UnwrapOr("b") != "a" {
		t.Fatal("UnwrapOr on Ok should return value")
	}
	if Err[string](errors.New("x")).UnwrapOr("b") != "b" {
		t.Fatal("UnwrapOr on Err should return fallback")
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must on Err should panic")
		}
	}()
	Err[int](errors.New("x")).Must()
}

func TestMapResult(t *testing.T) {
	r := MapResult(Ok(2), func(v int) string { return "n" })
	if r.Must() != "n" {
		t.Fatal("MapResult on Ok")
	}
	e := MapResult(Err[int](errors.New("boom")), func(v int) string { return "n" })
	if e.IsOk() {
		t.Fatal("MapResult on Err should stay Err")
	}
}

func TestFromPair(t *testing.T) {
	if FromPair(1, nil).Must() != 1 {
		t.Fatal("FromPair nil error")
	}
	if FromPair(1, errors.New("x")).IsOk() {
		t.Fatal("FromPair with error should be Err")
	}
}

func TestFilterAndMap(t *testing.T) {
	evens := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(evens) != 2 || evens[0] != 2 || evens[1] != 4 {
		t.Fatalf("got %v", evens)
	}
	doubled := Map([]int{1, 2}, func(v int) int { return v * 2 })
	if doubled[0] != 2 || doubled[1] != 4 {
		t.Fatalf("got %v", doubled)
	}
}

func TestFilterMap(t *testing.T) {
	out := FilterMap([]string{"a", "", "b"}, func(s string) (string, bool) { return s, s != "" })
	if len(out) != 2 || out[0] != "a" || out[1] != "b" {
		t.Fatalf("got %v", out)
	}
}
