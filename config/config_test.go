package config

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/florinutz/docsink/sinkerr"
)

func TestString_OverrideThenGlobalThenDefault(t *testing.T) {
	cfg := New(Properties{
		DocumentIDStrategy:                 "uuid",
		DocumentIDStrategy + ".orders":     "full_key",
		ValueProjectionType + ".customers": "blacklist",
	})

	tests := []struct {
		option      string
		destination string
		want        string
	}{
		{DocumentIDStrategy, "orders", "full_key"},
		{DocumentIDStrategy, "customers", "uuid"},
		{DocumentIDStrategy, DefaultDestination, "uuid"},
		{DocumentIDStrategy, "", "uuid"},
		{ValueProjectionType, "customers", "blacklist"},
		{ValueProjectionType, "orders", "none"},
		{PostProcessorChain, "orders", "document_id_adder"},
	}
	for _, tt := range tests {
		got, err := cfg.String(tt.option, tt.destination)
		if err != nil {
			t.Fatalf("String(%s, %s): %v", tt.option, tt.destination, err)
		}
		if got != tt.want {
			t.Errorf("String(%s, %s) = %q, want %q", tt.option, tt.destination, got, tt.want)
		}
	}
}

func TestString_DefaultDestinationIgnoresOverrideKeys(t *testing.T) {
	cfg := New(Properties{
		DocumentIDStrategy + "." + DefaultDestination: "uuid",
	})
	got, err := cfg.String(DocumentIDStrategy, DefaultDestination)
	if err != nil {
		t.Fatal(err)
	}
	if got != "bson_oid" {
		t.Errorf("got %q, want declared default bson_oid", got)
	}
}

func TestString_UnknownOption(t *testing.T) {
	_, err := New(nil).String("mongodb.nope", DefaultDestination)
	var ce *sinkerr.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestInt_RangeAndType(t *testing.T) {
	cfg := New(Properties{
		MaxBatchSize:               "-1",
		MaxNumRetries:              "ten",
		RateLimitingEveryN:         "4",
		RateLimitingEveryN + ".a":  " 7 ",
		RetriesDeferTimeout + ".a": "-5",
	})

	if _, err := cfg.Int(MaxBatchSize, DefaultDestination); err == nil {
		t.Error("expected range error for negative batch size")
	}
	if _, err := cfg.Int(MaxNumRetries, DefaultDestination); err == nil {
		t.Error("expected type error for non-integer retries")
	}
	if n, err := cfg.Int(RateLimitingEveryN, DefaultDestination); err != nil || n != 4 {
		t.Errorf("every.n = %d, %v; want 4", n, err)
	}
	if n, err := cfg.Int(RateLimitingEveryN, "a"); err != nil || n != 7 {
		t.Errorf("every.n(a) = %d, %v; want 7", n, err)
	}

	_, err := cfg.Int(RetriesDeferTimeout, "a")
	var ce *sinkerr.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if ce.Destination != "a" {
		t.Errorf("Destination = %q, want a", ce.Destination)
	}
}

func TestBool(t *testing.T) {
	cfg := New(Properties{DeleteOnNullValues: "TRUE", DeleteOnNullValues + ".x": "maybe"})
	b, err := cfg.Bool(DeleteOnNullValues, DefaultDestination)
	if err != nil || !b {
		t.Errorf("Bool = %v, %v; want true", b, err)
	}
	if _, err := cfg.Bool(DeleteOnNullValues, "x"); err == nil {
		t.Error("expected error for non-boolean value")
	}
}

func TestEnumRule(t *testing.T) {
	for _, v := range []string{"none", "NONE", "blacklist", "WHITELIST"} {
		cfg := New(Properties{KeyProjectionType: v})
		if _, err := cfg.String(KeyProjectionType, DefaultDestination); err != nil {
			t.Errorf("%q: unexpected error %v", v, err)
		}
	}
	for _, v := range []string{"Whitelist", "greylist", ""} {
		cfg := New(Properties{KeyProjectionType: v})
		if _, err := cfg.String(KeyProjectionType, DefaultDestination); err == nil {
			t.Errorf("%q: expected enum error", v)
		}
	}
}

func TestNameRules(t *testing.T) {
	tests := []struct {
		option string
		value  string
		ok     bool
	}{
		{DocumentIDStrategy, "", true},
		{DocumentIDStrategy, "uuid", true},
		{DocumentIDStrategy, "com.acme.Strategy", true},
		{DocumentIDStrategy, "1bad", false},
		{DocumentIDStrategy, "a..b", false},
		{PostProcessorChain, "", true},
		{PostProcessorChain, "document_id_adder, acme.Custom", true},
		{PostProcessorChain, "ok,not ok", false},
		{DocumentIDStrategies, "a.B,c", true},
	}
	for _, tt := range tests {
		cfg := New(Properties{tt.option: tt.value})
		_, err := cfg.String(tt.option, DefaultDestination)
		if (err == nil) != tt.ok {
			t.Errorf("%s=%q: err = %v, want ok=%v", tt.option, tt.value, err, tt.ok)
		}
	}
}

func TestDestinations(t *testing.T) {
	cfg := New(Properties{Collections: " orders, users ,orders,, __default__"})
	got, err := cfg.Destinations()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{DefaultDestination, "orders", "users"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Destinations = %q, want %q", got, want)
	}
}

func TestView(t *testing.T) {
	cfg := New(Properties{MaxBatchSize + ".orders": "50"})
	v := cfg.View("orders")
	if v.Destination() != "orders" || v.IsDefault() {
		t.Errorf("unexpected view destination %q", v.Destination())
	}
	n, err := v.Int(MaxBatchSize)
	if err != nil || n != 50 {
		t.Errorf("view Int = %d, %v; want 50", n, err)
	}
	if d := cfg.View("").Destination(); d != DefaultDestination {
		t.Errorf("empty destination view = %q, want sentinel", d)
	}
}

func TestValidateOptions(t *testing.T) {
	cfg := New(Properties{
		Collections:                   "orders,users",
		MaxBatchSize:                  "-3",
		KeyProjectionType + ".orders": "sideways",
		KeyProjectionType + ".ghost":  "sideways", // not a declared destination
		RateLimitingEveryN + ".users": "2",
	})

	errs := cfg.ValidateOptions()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	// errors follow declaration order of the options
	if errs[0].Option != KeyProjectionType || errs[0].Destination != "orders" {
		t.Errorf("first error = %+v", errs[0])
	}
	if errs[1].Option != MaxBatchSize || errs[1].Destination != "" {
		t.Errorf("second error = %+v", errs[1])
	}
	if !strings.Contains(errs[0].Error(), "destination orders") {
		t.Errorf("Error() = %q", errs[0].Error())
	}
	var ce *sinkerr.ConfigurationError
	if !errors.As(errs[0], &ce) {
		t.Error("FieldError should unwrap to ConfigurationError")
	}
}

func TestValidateOptions_DefaultsAreValid(t *testing.T) {
	if errs := New(nil).ValidateOptions(); len(errs) != 0 {
		t.Fatalf("defaults should validate, got %v", errs)
	}
}

func TestFromViper(t *testing.T) {
	v := NewViper()
	v.Set(MaxBatchSize, 10)
	v.Set(Collections, []any{"a", "b"})
	v.Set(DocumentIDStrategy, "uuid")

	props := FromViper(v)
	if props[MaxBatchSize] != "10" {
		t.Errorf("batch size = %q", props[MaxBatchSize])
	}
	if props[Collections] != "a,b" {
		t.Errorf("collections = %q", props[Collections])
	}
	if props[DocumentIDStrategy] != "uuid" {
		t.Errorf("id strategy = %q", props[DocumentIDStrategy])
	}
}
