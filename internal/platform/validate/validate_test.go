package validate

import (
	"errors"
	"strings"
	"testing"

	perr "facegate/internal/platform/errors"
)

func TestTagNameFunc_JsonTagNameUsed(t *testing.T) {
	type s struct {
		Val int `json:"foo,omitempty" validate:"min=1"`
	}
	err := Get().Validator.Struct(s{Val: 0})
	field, msg := FieldAndMessage(err)
	if field != "foo" {
		t.Fatalf("expected field=foo, got %s", field)
	}
	if !strings.Contains(msg, "at least") {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestTagNameFunc_DashUsesFieldName(t *testing.T) {
	type s struct {
		Secret int `json:"-" validate:"min=1"`
	}
	field, _ := FieldAndMessage(Get().Validator.Struct(s{Secret: 0}))
	if field != "Secret" {
		t.Fatalf("expected field=Secret, got %s", field)
	}
}

func TestFieldAndMessage_GenericError(t *testing.T) {
	field, msg := FieldAndMessage(errors.New("boom"))
	if field != "" || msg != "boom" {
		t.Fatalf("expected generic passthrough, got field=%q msg=%q", field, msg)
	}
}

func TestIsICNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{"900101-14-5566", true},
		{"A1234567", true},
		{"ab", false},
		{"", false},
		{"has space", false},
		{"ünicode1", false},
		{strings.Repeat("9", 32), true},
		{strings.Repeat("9", 33), false},
	}
	for _, c := range cases {
		if got := IsICNumber(c.in); got != c.want {
			t.Errorf("IsICNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStruct_ICNumberTag(t *testing.T) {
	type req struct {
		IC string `json:"ic_number" validate:"required,ic_number"`
	}
	if err := Struct(req{IC: "900101-14-5566"}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}

	err := Struct(req{IC: "no spaces allowed"})
	if perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("code = %v, want validation (%v)", perr.CodeOf(err), err)
	}
	e, _ := perr.As(err)
	if e.Field() != "ic_number" {
		t.Fatalf("field = %q, want ic_number", e.Field())
	}
	if !strings.Contains(err.Error(), "letters, digits or dashes") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestStruct_ImageDataURLTag(t *testing.T) {
	type img struct {
		Image string `json:"image" validate:"image_data_url"`
	}
	if err := Struct(img{Image: "data:image/jpeg;base64,AAAA"}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := Struct(img{Image: "AAAA"}); perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVar(t *testing.T) {
	if err := Var("A1234567", "ic_number"); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if err := Var("x", "ic_number"); perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStruct_NonStructIsInternal(t *testing.T) {
	if err := Struct(5); perr.CodeOf(err) != perr.ErrorCodeUnknown {
		t.Fatalf("expected unknown-coded error, got %v", err)
	}
}

func TestStruct_OneOfFoldTag(t *testing.T) {
	type in struct {
		Mode string `json:"mode" validate:"oneof_fold=register verify"`
	}
	for _, ok := range []string{"register", "Register", " VERIFY "} {
		if err := Struct(in{Mode: ok}); err != nil {
			t.Fatalf("%q: %v", ok, err)
		}
	}
	err := Struct(in{Mode: "enroll"})
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != "mode" {
		t.Fatalf("err = %v", err)
	}
	if e.Message() != "mode must be one of [register verify]" {
		t.Fatalf("message %q", e.Message())
	}
}
