package soap

import (
	"bytes"
	"text/template"
)

var wsdlTemplate = template.Must(template.New("wsdl").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<definitions xmlns="http://schemas.xmlsoap.org/wsdl/"
             xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
             xmlns:xs="http://www.w3.org/2001/XMLSchema"
             xmlns:tns="{{.Namespace}}"
             targetNamespace="{{.Namespace}}">
  <types>
    <xs:schema targetNamespace="{{.Namespace}}">
{{- range .Operations}}
      <xs:element name="{{.Name}}">
        <xs:complexType>
          <xs:sequence>
{{- range .Params}}
            <xs:element name="{{.}}" type="xs:string"/>
{{- end}}
          </xs:sequence>
        </xs:complexType>
      </xs:element>
      <xs:element name="{{.Name}}Response">
        <xs:complexType>
          <xs:sequence>
            <xs:element name="{{.Result}}" type="xs:string"/>
          </xs:sequence>
        </xs:complexType>
      </xs:element>
{{- end}}
    </xs:schema>
  </types>
{{range .Operations}}
  <message name="{{.Name}}Request">
    <part name="parameters" element="tns:{{.Name}}"/>
  </message>
  <message name="{{.Name}}Response">
    <part name="parameters" element="tns:{{.Name}}Response"/>
  </message>
{{- end}}

  <portType name="BlogServicePortType">
{{- range .Operations}}
    <operation name="{{.Name}}">
      <input message="tns:{{.Name}}Request"/>
      <output message="tns:{{.Name}}Response"/>
    </operation>
{{- end}}
  </portType>

  <binding name="BlogServiceSOAPBinding" type="tns:BlogServicePortType">
    <soap:binding transport="http://schemas.xmlsoap.org/soap/http"/>
{{- range .Operations}}
    <operation name="{{.Name}}">
      <soap:operation soapAction="{{.Name}}"/>
      <input><soap:body use="literal"/></input>
      <output><soap:body use="literal"/></output>
    </operation>
{{- end}}
  </binding>

  <service name="BlogService">
    <port name="BlogServiceSOAPPort" binding="tns:BlogServiceSOAPBinding">
      <soap:address location="{{.Namespace}}"/>
    </port>
  </service>
</definitions>
`))

type wsdlOperation struct {
	Name   string
	Params []string
	Result string
}

var wsdlOperations = []wsdlOperation{
	{Name: "authenticateUser", Params: []string{"username", "password"}, Result: "result"},
	{Name: "getAllUsers", Result: "users"},
	{Name: "getStatistics", Result: "stats"},
}

// WSDL renders the service description for namespace, which is also the
// endpoint address.
func WSDL(namespace string) ([]byte, error) {
	var buf bytes.Buffer
	err := wsdlTemplate.Execute(&buf, struct {
		Namespace  string
		Operations []wsdlOperation
	}{namespace, wsdlOperations})
	return buf.Bytes(), err
}
