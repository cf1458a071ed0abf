package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required,max=5"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"taco","quantity":2}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Name != "taco" || body.Quantity != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         ``,
		"unknown field": `{"name":"taco","quantity":1,"extra":true}`,
		"validation":    `{"name":"burrito","quantity":0}`,
		"malformed":     `{"name":`,
	}
	for name, raw := range cases {
		req := httptest.NewRequest("POST", "/", strings.NewReader(raw))
		var body sampleBody
		err := DecodeJSONBody(req, &body)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"burrito","quantity":0}`))
	var body sampleBody
	details, ok := pkgerrors.As(DecodeJSONBody(req, &body)).Details().(map[string]string)
	if !ok {
		t.Fatal("expected field details")
	}
	if details["name"] != "must be at most 5" || details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=10&vendor_id=not-a-uuid&unread=true", nil)
	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	if err != nil || limit != 10 {
		t.Fatalf("unexpected limit %d err %v", limit, err)
	}
	if _, err := ParseQueryUUID(req, "vendor_id"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if id, err := ParseQueryUUID(req, "missing"); err != nil || id != nil {
		t.Fatalf("expected nil uuid for absent param")
	}
	unread, err := ParseQueryBool(req, "unread")
	if err != nil || !unread {
		t.Fatalf("expected unread=true")
	}

	req = httptest.NewRequest("GET", "/?limit=500", nil)
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range error, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	if err != nil || token != "abc.def" {
		t.Fatalf("unexpected token %q err %v", token, err)
	}
	if token, _ := BearerToken("bearer   xyz "); token != "xyz" {
		t.Fatalf("expected case-insensitive scheme, got %q", token)
	}
	for _, raw := range []string{"", "Bearer ", "Basic abc", "abc"} {
		if _, err := BearerToken(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		input  string
		maxLen int
		want   string
	}{
		{input: "  hello world  ", maxLen: 5, want: "hello"},
		{input: "ready\x00\x1b", maxLen: 0, want: "ready"},
		{input: "extra rice\nno onion", maxLen: 0, want: "extra rice\nno onion"},
		{input: "crème brûlée", maxLen: 4, want: "crè"},
		{input: "ab cd", maxLen: 3, want: "ab"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.input, tc.maxLen); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.want)
		}
	}
	if got := SanitizeEnum(" Delivered ", 32); got != "delivered" {
		t.Fatalf("SanitizeEnum = %q", got)
	}
}
