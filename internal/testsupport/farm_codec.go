package testsupport

import (
	"encoding/xml"
	"fmt"

	"github.com/kolo/xmlrpc"
)

// wireCall is the envelope of a methodCall. Each param keeps its raw
// <value> element so the library decoder can unpack it.
type wireCall struct {
	Method string `xml:"methodName"`
	Params []struct {
		Value string `xml:",innerxml"`
	} `xml:"params>param"`
}

func decodeCall(body []byte) (string, []any, error) {
	var call wireCall
	if err := xml.Unmarshal(body, &call); err != nil {
		return "", nil, fmt.Errorf("parse methodCall: %w", err)
	}
	if call.Method == "" {
		return "", nil, fmt.Errorf("methodCall without methodName")
	}
	params := make([]any, len(call.Params))
	for i, p := range call.Params {
		if err := xmlrpc.Response(p.Value).Unmarshal(&params[i]); err != nil {
			return "", nil, fmt.Errorf("param %d of %s: %w", i, call.Method, err)
		}
	}
	return call.Method, params, nil
}

// encodeValue renders v as a <value> element using the library encoder.
func encodeValue(v any) (string, error) {
	body, err := xmlrpc.EncodeMethodCall("value", v)
	if err != nil {
		return "", err
	}
	var call wireCall
	if err := xml.Unmarshal(body, &call); err != nil {
		return "", err
	}
	if len(call.Params) != 1 {
		return "", fmt.Errorf("encoded %d params, want 1", len(call.Params))
	}
	return call.Params[0].Value, nil
}

func encodeResponse(result any) ([]byte, error) {
	value, err := encodeValue(result)
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + "<methodResponse><params><param>" + value + "</param></params></methodResponse>"), nil
}

func encodeFault(fault xmlrpc.FaultError) ([]byte, error) {
	value, err := encodeValue(map[string]any{"faultCode": fault.Code, "faultString": fault.String})
	if err != nil {
		return nil, err
	}
	return []byte(xml.Header + "<methodResponse><fault>" + value + "</fault></methodResponse>"), nil
}
