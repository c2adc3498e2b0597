package vies

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	soapNamespace  = "http://schemas.xmlsoap.org/soap/envelope/"
	typesNamespace = "urn:ec.europa.eu:taxud:vies:services:checkVat:types"
)

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	SoapNS  string      `xml:"xmlns:soapenv,attr"`
	TypesNS string      `xml:"xmlns:urn,attr"`
	Header  struct{}    `xml:"soapenv:Header"`
	Body    requestBody `xml:"soapenv:Body"`
}

type requestBody struct {
	CheckVat checkVatRequest `xml:"urn:checkVat"`
}

type checkVatRequest struct {
	CountryCode string `xml:"urn:countryCode"`
	VATNumber   string `xml:"urn:vatNumber"`
}

func encodeRequest(prefix, remainder string) ([]byte, error) {
	env := requestEnvelope{
		SoapNS:  soapNamespace,
		TypesNS: typesNamespace,
		Body: requestBody{
			CheckVat: checkVatRequest{CountryCode: prefix, VATNumber: remainder},
		},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Response *checkVatResponse `xml:"checkVatResponse"`
		Fault    *soapFault        `xml:"Fault"`
	} `xml:"Body"`
}

type checkVatResponse struct {
	CountryCode string `xml:"countryCode"`
	VATNumber   string `xml:"vatNumber"`
	RequestDate string `xml:"requestDate"`
	Valid       string `xml:"valid"`
	Name        string `xml:"name"`
	Address     string `xml:"address"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// answerKind classifies one registry response.
type answerKind int

const (
	answerTransport answerKind = iota // no usable response; pause before retrying
	answerAmbiguous                   // usable response that decides nothing; retry at once
	answerValid
	answerInvalid
)

func (k answerKind) String() string {
	switch k {
	case answerAmbiguous:
		return "ambiguous"
	case answerValid:
		return "valid"
	case answerInvalid:
		return "invalid"
	default:
		return "transport_error"
	}
}

type answer struct {
	kind  answerKind
	fault string
}

// Faults that mean the number itself was rejected. Everything else the
// service reports (MS_UNAVAILABLE, TIMEOUT, SERVER_BUSY, ...) is transient.
var invalidFaults = map[string]bool{
	"INVALID_INPUT": true,
}

// classify decides what a response body says about the number.
func classify(body []byte, status int) answer {
	if len(bytes.TrimSpace(body)) == 0 {
		return answer{kind: answerTransport, fault: "empty response body"}
	}

	var env responseEnvelope
	if err := xml.Unmarshal(body, &env); err == nil {
		if f := env.Body.Fault; f != nil {
			fault := strings.TrimSpace(f.String)
			if fault == "" {
				fault = strings.TrimSpace(f.Code)
			}
			if invalidFaults[strings.ToUpper(fault)] {
				return answer{kind: answerInvalid, fault: fault}
			}
			return answer{kind: answerAmbiguous, fault: fault}
		}
		if r := env.Body.Response; r != nil {
			switch strings.ToLower(strings.TrimSpace(r.Valid)) {
			case "true":
				return answer{kind: answerValid}
			case "false":
				return answer{kind: answerInvalid, fault: "not registered"}
			default:
				return answer{kind: answerAmbiguous, fault: "response without validity flag"}
			}
		}
	}

	if status < 200 || status > 299 {
		return answer{kind: answerTransport, fault: fmt.Sprintf("unexpected status %d", status)}
	}

	// Plain-text and HTML answers. "invalid" contains "valid", so it goes first.
	text := strings.ToLower(string(body))
	switch {
	case strings.Contains(text, "invalid vat number"):
		return answer{kind: answerInvalid, fault: "invalid VAT number"}
	case strings.Contains(text, "valid vat number"):
		return answer{kind: answerValid}
	}
	return answer{kind: answerTransport, fault: "unrecognized response body"}
}
