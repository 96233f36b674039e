package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
)

type registerForm struct {
	Username string `form:"username" binding:"notblank"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"notblank,min=8"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	Configure(v)
	return v
}

func TestToDetailsValidation(t *testing.T) {
	v := newValidator()
	err := v.Struct(registerForm{Username: "   ", Email: "nope", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	details := ToDetails(err)
	got := map[string]string{}
	for _, d := range details {
		fe := d.(FieldError)
		got[fe.Field] = fe.Message
	}
	if got["username"] != "is required" {
		t.Fatalf("username: %q", got["username"])
	}
	if got["email"] != "must be a valid email address" {
		t.Fatalf("email: %q", got["email"])
	}
	if got["password"] != "must be at least 8 characters" {
		t.Fatalf("password: %q", got["password"])
	}
}

func TestToDetailsJSON(t *testing.T) {
	var out map[string]any
	err := json.Unmarshal([]byte("{"), &out)
	details := ToDetails(err)
	if len(details) != 1 || details[0].(FieldError).Message != "invalid json" {
		t.Fatalf("unexpected details %v", details)
	}
	if ToDetails(nil) != nil {
		t.Fatal("nil error should give nil details")
	}
}
