package soap

import (
	"encoding/xml"
	"errors"
	"strings"
)

// EnvelopeNS is the SOAP 1.1 envelope namespace.
const EnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

var errNoOperation = errors.New("soap body carries no operation")

type requestEnvelope struct {
	XMLName xml.Name    `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    requestBody `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
}

type requestBody struct {
	Operations []operation `xml:",any"`
}

type operation struct {
	XMLName xml.Name
	Params  []param `xml:",any"`
}

type param struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Call is a decoded operation request.
type Call struct {
	Method string
	Params map[string]string
}

// ParseRequest extracts the first operation of the envelope body. Parameter
// names are matched on their local name.
func ParseRequest(data []byte) (Call, error) {
	var env requestEnvelope
	if err := xml.Unmarshal(data, &env); err != nil {
		return Call{}, err
	}
	if len(env.Body.Operations) == 0 {
		return Call{}, errNoOperation
	}
	op := env.Body.Operations[0]
	call := Call{Method: op.XMLName.Local, Params: make(map[string]string, len(op.Params))}
	for _, p := range op.Params {
		call.Params[p.XMLName.Local] = strings.TrimSpace(p.Value)
	}
	return call, nil
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	SoapNS  string   `xml:"xmlns:soap,attr"`
	Body    responseBody
}

type responseBody struct {
	XMLName xml.Name `xml:"soap:Body"`
	Content any
}

type operationResponse struct {
	XMLName xml.Name
	Value   valueElement
}

type valueElement struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

type fault struct {
	XMLName xml.Name `xml:"soap:Fault"`
	Code    string   `xml:"faultcode"`
	String  string   `xml:"faultstring"`
}

func marshalEnvelope(content any) ([]byte, error) {
	out, err := xml.MarshalIndent(responseEnvelope{
		SoapNS: EnvelopeNS,
		Body:   responseBody{Content: content},
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Response encodes <method>Response holding one text element.
func Response(namespace, method, element, text string) ([]byte, error) {
	return marshalEnvelope(operationResponse{
		XMLName: xml.Name{Space: namespace, Local: method + "Response"},
		Value:   valueElement{XMLName: xml.Name{Local: element}, Text: text},
	})
}

// Fault encodes a SOAP fault. code is "Client" or "Server".
func Fault(code, message string) []byte {
	out, err := marshalEnvelope(fault{Code: code, String: message})
	if err != nil {
		return []byte(xml.Header + `<soap:Envelope xmlns:soap="` + EnvelopeNS + `"><soap:Body><soap:Fault><faultcode>Server</faultcode><faultstring>encoding error</faultstring></soap:Fault></soap:Body></soap:Envelope>`)
	}
	return out
}
