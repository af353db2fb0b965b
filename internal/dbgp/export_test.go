package dbgp

import "fmt"

// DecodeProperty decodes one <property> element the way a property_get
// response carries it.
func DecodeProperty(element string, version int) (Property, error) {
	p, err := decodePacket([]byte(`<response command="property_get" transaction_id="1">` + element + `</response>`))
	if err != nil {
		return nil, err
	}
	if p.response == nil || len(p.response.Properties) == 0 {
		return nil, fmt.Errorf("no property in %q", element)
	}
	return p.response.Properties[0].toProperty(nil, version), nil
}
