//go:build unit

package validation

import (
	"errors"
	"testing"
)

type companyForm struct {
	Name    string `json:"name" validate:"required,max=10"`
	Website string `json:"website" validate:"omitempty,url"`
	Contact struct {
		Email string `json:"email" validate:"omitempty,email"`
	} `json:"point_person"`
	Status string `json:"status" validate:"omitempty,oneof=draft active"`
}

func TestStruct_Valid(t *testing.T) {
	form := companyForm{Name: "Acme", Website: "https://acme.test", Status: "draft"}
	if err := Struct(&form); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestStruct_FieldErrors(t *testing.T) {
	form := companyForm{Website: "not a url", Status: "gone"}
	form.Contact.Email = "nope"

	err := Struct(&form)
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
	}

	got := map[string]string{}
	for _, fe := range verrs {
		got[fe.Field] = fe.Tag
	}
	want := map[string]string{
		"name":               "required",
		"website":            "url",
		"point_person.email": "email",
		"status":             "oneof",
	}
	for field, tag := range want {
		if got[field] != tag {
			t.Errorf("field %s: want tag %q, got %q", field, tag, got[field])
		}
	}
	if verrs.Error() == "" {
		t.Error("expected a combined error message")
	}
}
