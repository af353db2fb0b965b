package dbgp

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// InitPacket is the first packet a debuggee sends after connecting.
type InitPacket struct {
	XMLName         xml.Name `xml:"init"`
	AppID           string   `xml:"appid,attr"`
	IDEKey          string   `xml:"ide_key,attr"`
	Session         string   `xml:"session,attr"`
	Thread          string   `xml:"thread,attr"`
	Language        string   `xml:"language,attr"`
	ProtocolVersion string   `xml:"protocol_version,attr"`
	FileURI         string   `xml:"fileuri,attr"`
}

// Stream is an output packet (stdout/stderr redirection).
type Stream struct {
	XMLName  xml.Name `xml:"stream"`
	Type     string   `xml:"type,attr"`
	Encoding string   `xml:"encoding,attr"`
	Data     string   `xml:",chardata"`
}

// Text returns the decoded stream payload.
func (s *Stream) Text() string {
	return decodeValue(s.Encoding, s.Data)
}

// Response is the reply to a command.
type Response struct {
	XMLName       xml.Name        `xml:"response"`
	Command       string          `xml:"command,attr"`
	TransactionID int             `xml:"transaction_id,attr"`
	Status        string          `xml:"status,attr"`
	Reason        string          `xml:"reason,attr"`
	Success       string          `xml:"success,attr"`
	ID            string          `xml:"id,attr"`
	FeatureName   string          `xml:"feature_name,attr"`
	Supported     string          `xml:"supported,attr"`
	Error         *responseError  `xml:"error"`
	Contexts      []xmlContext    `xml:"context"`
	Stack         []xmlStackFrame `xml:"stack"`
	Properties    []xmlProperty   `xml:"property"`
	Text          string          `xml:",chardata"`
}

type responseError struct {
	Code    int    `xml:"code,attr"`
	Message string `xml:"message"`
}

type xmlContext struct {
	Name string `xml:"name,attr"`
	ID   int    `xml:"id,attr"`
}

type xmlStackFrame struct {
	Level    int    `xml:"level,attr"`
	Type     string `xml:"type,attr"`
	Filename string `xml:"filename,attr"`
	Lineno   int    `xml:"lineno,attr"`
	Where    string `xml:"where,attr"`
}

type xmlProperty struct {
	Name        string        `xml:"name,attr"`
	FullName    string        `xml:"fullname,attr"`
	Type        string        `xml:"type,attr"`
	Facet       string        `xml:"facet,attr"`
	ClassName   string        `xml:"classname,attr"`
	Address     string        `xml:"address,attr"`
	Size        int           `xml:"size,attr"`
	Children    string        `xml:"children,attr"`
	NumChildren int           `xml:"numchildren,attr"`
	Encoding    string        `xml:"encoding,attr"`
	Properties  []xmlProperty `xml:"property"`
	Value       string        `xml:",chardata"`
}

// packet is one decoded debuggee packet; exactly one field is set.
type packet struct {
	init     *InitPacket
	response *Response
	stream   *Stream
}

// decodePacket decodes a packet by its root element.
func decodePacket(content []byte) (*packet, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode packet: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "init":
			var p InitPacket
			if err := dec.DecodeElement(&p, &start); err != nil {
				return nil, fmt.Errorf("decode init: %w", err)
			}
			return &packet{init: &p}, nil
		case "response":
			var r Response
			if err := dec.DecodeElement(&r, &start); err != nil {
				return nil, fmt.Errorf("decode response: %w", err)
			}
			return &packet{response: &r}, nil
		case "stream":
			var s Stream
			if err := dec.DecodeElement(&s, &start); err != nil {
				return nil, fmt.Errorf("decode stream: %w", err)
			}
			return &packet{stream: &s}, nil
		default:
			return nil, fmt.Errorf("%w: <%s>", ErrUnknownPacket, start.Name.Local)
		}
	}
}

func decodeValue(encoding, data string) string {
	if encoding != "base64" {
		return data
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return data
	}
	return string(raw)
}

func parseFacet(attr string) Facet {
	for _, f := range strings.Fields(attr) {
		switch f {
		case "Builtin":
			return FacetBuiltin
		case "Static":
			return FacetStatic
		}
	}
	return FacetNormal
}

// toProperty converts the XML node into the data model. Children are
// attached to the same context.
func (x *xmlProperty) toProperty(c *Context, version int) Property {
	base := PropertyBase{
		Name:     x.Name,
		FullName: x.FullName,
		Facet:    parseFacet(x.Facet),
		Context:  c,
	}
	if idx, ok := ParseIndexKey(x.Name); ok {
		base.IsIndexKey = true
		base.Index = idx
	}

	if x.Type != TypeObject {
		typ := PrimitiveType(x.Type)
		if typ == "" {
			typ = TypeUndefined
		}
		return &PrimitiveProperty{
			PropertyBase: base,
			Type:         typ,
			Value:        decodeValue(x.Encoding, x.Value),
		}
	}

	address, _ := strconv.ParseInt(x.Address, 10, 64)
	obj := &ObjectProperty{
		PropertyBase: base,
		Address:      address,
		ClassName:    x.ClassName,
		HasChildren:  x.Children == "1" || len(x.Properties) > 0,
		NumChildren:  x.NumChildren,
	}
	obj.LoadedChildren = len(x.Properties) > 0 || !obj.HasChildren
	for i := range x.Properties {
		obj.Children = append(obj.Children, x.Properties[i].toProperty(c, version))
	}
	obj.detectArray(version)
	return obj
}
