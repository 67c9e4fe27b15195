package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
)

// Kind identifies which MTConnect document shape an Outcome carries.
type Kind int

const (
	KindUnknown Kind = iota
	KindDevices
	KindStreams
	KindAssets
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindDevices:
		return "devices"
	case KindStreams:
		return "streams"
	case KindAssets:
		return "assets"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged union Decode returns: exactly one of the pointer
// fields matching Kind is non-nil, except for KindUnknown where all are nil.
type Outcome struct {
	Kind    Kind
	Devices *DevicesDocument
	Streams *StreamsDocument
	Assets  *AssetsDocument
	Error   *ErrorDocument
}

// Decode sniffs body's root element and unmarshals it into the matching
// MTConnect document type. A well-formed XML document with an unrecognized
// root element yields Outcome{Kind: KindUnknown} and a nil error — the
// caller (the Request Drivers) is responsible for turning that into a
// TransportError. A body that isn't well-formed XML at all returns a
// non-nil error for the same purpose.
func Decode(body []byte) (Outcome, error) {
	root, err := rootElementName(body)
	if err != nil {
		return Outcome{}, fmt.Errorf("document: %w", err)
	}

	switch root {
	case "MTConnectDevices":
		var doc DevicesDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return Outcome{}, fmt.Errorf("document: decode MTConnectDevices: %w", err)
		}
		return Outcome{Kind: KindDevices, Devices: &doc}, nil
	case "MTConnectStreams":
		var doc StreamsDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return Outcome{}, fmt.Errorf("document: decode MTConnectStreams: %w", err)
		}
		return Outcome{Kind: KindStreams, Streams: &doc}, nil
	case "MTConnectAssets":
		var doc AssetsDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return Outcome{}, fmt.Errorf("document: decode MTConnectAssets: %w", err)
		}
		return Outcome{Kind: KindAssets, Assets: &doc}, nil
	case "MTConnectError":
		var doc ErrorDocument
		if err := xml.Unmarshal(body, &doc); err != nil {
			return Outcome{}, fmt.Errorf("document: decode MTConnectError: %w", err)
		}
		return Outcome{Kind: KindError, Error: &doc}, nil
	default:
		return Outcome{Kind: KindUnknown}, nil
	}
}

func rootElementName(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

var namespaceVersion = regexp.MustCompile(`:(\d+)\.(\d+)$`)

// ResolveVersion extracts the MTConnect schema version encoded in a
// recognized namespace URI, e.g. "urn:mtconnect.org:MTConnectStreams:1.7"
// resolves to 107. Returns -1 if namespaceURI carries no recognizable
// version suffix.
func ResolveVersion(namespaceURI string) int {
	m := namespaceVersion.FindStringSubmatch(namespaceURI)
	if m == nil {
		return -1
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return -1
	}
	return major*100 + minor
}
