package document

import "encoding/xml"

// Header carries the agent-identifying attributes present on every
// MTConnect response document's <Header> element.
type Header struct {
	CreationTime    string `xml:"creationTime,attr"`
	Sender          string `xml:"sender,attr"`
	InstanceID      uint64 `xml:"instanceId,attr"`
	Version         string `xml:"version,attr"`
	BufferSize      uint64 `xml:"bufferSize,attr"`
	AssetBufferSize uint64 `xml:"assetBufferSize,attr"`
	AssetCount      uint64 `xml:"assetCount,attr"`
	FirstSequence   uint64 `xml:"firstSequence,attr"`
	LastSequence    uint64 `xml:"lastSequence,attr"`
	NextSequence    uint64 `xml:"nextSequence,attr"`
}

// AgentHeader is the subset of Header the session loop actually consumes
// (spec §3's "AgentHeader — consumed, not owned").
type AgentHeader struct {
	InstanceID    uint64
	FirstSequence uint64
	LastSequence  uint64
	NextSequence  uint64
	BufferSize    uint64
}

func (h Header) toAgentHeader() AgentHeader {
	return AgentHeader{
		InstanceID:    h.InstanceID,
		FirstSequence: h.FirstSequence,
		LastSequence:  h.LastSequence,
		NextSequence:  h.NextSequence,
		BufferSize:    h.BufferSize,
	}
}

// DevicesDocument is the result of a Probe request.
type DevicesDocument struct {
	XMLName xml.Name `xml:"MTConnectDevices"`
	Xmlns   string   `xml:"xmlns,attr"`
	Header  Header   `xml:"Header"`
	Devices []Device `xml:"Devices>Device"`
}

// AgentHeader returns the document's agent header.
func (d *DevicesDocument) AgentHeader() AgentHeader { return d.Header.toAgentHeader() }

// Device is a top-level device description. Component-level detail (axes,
// controllers, DataItem definitions) is not modeled; the session loop only
// needs identity for device-name selection.
type Device struct {
	Name string `xml:"name,attr"`
	UUID string `xml:"uuid,attr"`
	ID   string `xml:"id,attr"`
}

// StreamsDocument is the result of a Current request or one chunk of a
// Sample stream.
type StreamsDocument struct {
	XMLName xml.Name       `xml:"MTConnectStreams"`
	Xmlns   string         `xml:"xmlns,attr"`
	Header  Header         `xml:"Header"`
	Streams []DeviceStream `xml:"Streams>DeviceStream"`
}

// AgentHeader returns the document's agent header.
func (s *StreamsDocument) AgentHeader() AgentHeader { return s.Header.toAgentHeader() }

// DeviceStream selects the DeviceStream whose Name matches name, or the
// first stream if name is empty. Reports false if there are no streams.
func (s *StreamsDocument) DeviceStream(name string) (*DeviceStream, bool) {
	if len(s.Streams) == 0 {
		return nil, false
	}
	if name == "" {
		return &s.Streams[0], true
	}
	for i := range s.Streams {
		if s.Streams[i].Name == name {
			return &s.Streams[i], true
		}
	}
	return nil, false
}

// DeviceStream is one device's worth of ComponentStream observations.
type DeviceStream struct {
	Name             string            `xml:"name,attr"`
	UUID             string            `xml:"uuid,attr"`
	ComponentStreams []ComponentStream `xml:"ComponentStream"`
}

// DataItems flattens the Samples, Events, and Condition entries across all
// of this stream's ComponentStreams into one slice, in document order.
func (ds DeviceStream) DataItems() []DataItem {
	var items []DataItem
	for _, cs := range ds.ComponentStreams {
		items = append(items, cs.Samples.Items...)
		items = append(items, cs.Events.Items...)
		items = append(items, cs.Condition.Items...)
	}
	return items
}

// ComponentStream groups the observations reported for one structural
// component (axis, controller, path, ...) of a device.
type ComponentStream struct {
	Component   string          `xml:"component,attr"`
	Name        string          `xml:"name,attr"`
	ComponentID string          `xml:"componentId,attr"`
	Samples     dataItemElement `xml:"Samples"`
	Events      dataItemElement `xml:"Events"`
	Condition   dataItemElement `xml:"Condition"`
}

// dataItemElement unwraps a <Samples>/<Events>/<Condition> container, whose
// children are tagged by DataItem type (e.g. <Execution>, <PartCount>,
// <AssetChanged>) rather than a fixed element name.
type dataItemElement struct {
	Items []DataItem `xml:",any"`
}

// DataItem is one observation. Type is the item's MTConnect category, taken
// from its own XML tag name (e.g. "AssetChanged", "Execution").
type DataItem struct {
	XMLName    xml.Name
	DataItemID string `xml:"dataItemId,attr"`
	Name       string `xml:"name,attr"`
	SubType    string `xml:"subType,attr"`
	Sequence   uint64 `xml:"sequence,attr"`
	Timestamp  string `xml:"timestamp,attr"`
	Value      string `xml:",chardata"`
}

// Type returns the DataItem's MTConnect category (its element name).
func (d DataItem) Type() string { return d.XMLName.Local }

// AssetsDocument is the result of an Assets request.
type AssetsDocument struct {
	XMLName xml.Name        `xml:"MTConnectAssets"`
	Xmlns   string          `xml:"xmlns,attr"`
	Header  Header          `xml:"Header"`
	Assets  assetsContainer `xml:"Assets"`
}

// AgentHeader returns the document's agent header.
func (a *AssetsDocument) AgentHeader() AgentHeader { return a.Header.toAgentHeader() }

// AssetList returns the decoded assets in document order.
func (a *AssetsDocument) AssetList() []Asset { return a.Assets.Items }

type assetsContainer struct {
	Items []Asset `xml:",any"`
}

// Asset is one asset document entry. Assets vary widely in shape
// (CuttingTool, File, ...) so the type-specific body is kept as raw XML;
// the envelope attributes common to every asset type are decoded.
type Asset struct {
	XMLName    xml.Name
	AssetID    string `xml:"assetId,attr"`
	DeviceUUID string `xml:"deviceUuid,attr"`
	Timestamp  string `xml:"timestamp,attr"`
	Removed    bool   `xml:"removed,attr"`
	Raw        []byte `xml:",innerxml"`
}

// Type returns the asset's MTConnect category (its element name).
func (a Asset) Type() string { return a.XMLName.Local }

// ErrorDocument is the MTConnectError document an agent returns (with HTTP
// 2xx) when it understood the request but is reporting a protocol-level
// condition.
type ErrorDocument struct {
	XMLName xml.Name     `xml:"MTConnectError"`
	Xmlns   string       `xml:"xmlns,attr"`
	Header  Header       `xml:"Header"`
	Errors  []AgentError `xml:"Errors>Error"`
}

// AgentHeader returns the document's agent header.
func (e *ErrorDocument) AgentHeader() AgentHeader { return e.Header.toAgentHeader() }

// AgentError is a single reported error condition.
type AgentError struct {
	ErrorCode string `xml:"errorCode,attr"`
	Message   string `xml:",chardata"`
}

// Summary renders the first error as "CODE: message", or "" if there are
// none.
func (e *ErrorDocument) Summary() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].ErrorCode + ": " + e.Errors[0].Message
}
