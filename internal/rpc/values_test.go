package rpc

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecodeResponseStruct(t *testing.T) {
	doc := `<?xml version="1.0"?>
<methodResponse>
  <params><param><value><struct>
    <member><name>key</name><value><string>K1</string></value></member>
    <member><name>userID</name><value><int>42</int></value></member>
    <member><name>flags</name><value><array><data>
      <value><boolean>1</boolean></value>
      <value><double>1.5</double></value>
    </data></array></value></member>
  </struct></value></param></params>
</methodResponse>`
	v, err := decodeResponse("auth.getSessionKey", []byte(doc))
	if err != nil {
		t.Fatalf("decodeResponse: %v", err)
	}
	want := map[string]any{
		"key":    "K1",
		"userID": int64(42),
		"flags":  []any{true, 1.5},
	}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v\nwant %#v", v, want)
	}
}

func TestDecodeResponseFault(t *testing.T) {
	doc := `<?xml version="1.0"?>
<methodResponse><fault><value><struct>
  <member><name>faultCode</name><value><int>1</int></value></member>
  <member><name>faultString</name><value><string>Failed to invoke method getSessionKey</string></value></member>
</struct></value></fault></methodResponse>`
	_, err := decodeResponse("auth.getSessionKey", []byte(doc))
	var fault Fault
	if !errors.As(err, &fault) {
		t.Fatalf("expected Fault, got %v", err)
	}
	if fault.Code != 1 || !strings.Contains(fault.String, "getSessionKey") {
		t.Fatalf("unexpected fault %+v", fault)
	}
}

func TestDecodeResponseRejectsGarbage(t *testing.T) {
	if _, err := decodeResponse("service.motd", []byte("<html>busy</html>")); err == nil {
		t.Fatal("expected error for a document without a value")
	}
}

func TestAccessors(t *testing.T) {
	if n, ok := AsInt("12"); !ok || n != 12 {
		t.Fatalf("AsInt string = %v %v", n, ok)
	}
	if _, ok := AsInt(1.5); ok {
		t.Fatal("fractional float must not coerce")
	}
	if b, ok := AsBool(int64(1)); !ok || !b {
		t.Fatal("AsBool(1) should be true")
	}
	if s, ok := AsString(int64(7)); !ok || s != "7" {
		t.Fatalf("AsString(7) = %q %v", s, ok)
	}
	if v, ok := Member(map[string]any{"start": int64(3)}, "frameStart", "start"); !ok || v != int64(3) {
		t.Fatalf("Member fallback = %v %v", v, ok)
	}
	if _, ok := Member("not a struct", "key"); ok {
		t.Fatal("Member on a scalar must fail")
	}
}
