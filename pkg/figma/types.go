package figma

// NodesResponse represents the response from the Figma nodes API endpoint when fetching specific nodes.
// A requested node that does not exist comes back as null and is absent from Nodes.
type NodesResponse struct {
	Name         string               `json:"name"`
	LastModified string               `json:"lastModified"`
	Version      string               `json:"version"`
	Nodes        map[string]*NodeData `json:"nodes"`
}

// NodeData wraps a node with its document structure and optional component/style information.
type NodeData struct {
	Document   Node                 `json:"document"`
	Components map[string]Component `json:"components,omitempty"`
	Styles     map[string]Style     `json:"styles,omitempty"`
}

// Component represents a Figma component definition with its metadata.
type Component struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Style represents a published Figma style with its basic properties.
type Style struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StyleType   string `json:"styleType"`
}

// ImagesResponse is returned by the render endpoint: node ID -> temporary image URL.
// A node that could not be rendered maps to an empty string.
type ImagesResponse struct {
	Err    string            `json:"err"`
	Images map[string]string `json:"images"`
}

// Node types the card extractor cares about.
const (
	NodeText      = "TEXT"
	PaintSolid    = "SOLID"
	NodeFrame     = "FRAME"
	NodeRectangle = "RECTANGLE"
)

// Node represents a single element in the Figma document tree hierarchy.
// Only the properties consumed by the card extractor are decoded.
type Node struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Type                string     `json:"type"`
	Children            []Node     `json:"children,omitempty"`
	Fills               []Paint    `json:"fills,omitempty"`
	Strokes             []Paint    `json:"strokes,omitempty"`
	StrokeWeight        float64    `json:"strokeWeight,omitempty"`
	CornerRadius        float64    `json:"cornerRadius,omitempty"`
	Characters          string     `json:"characters,omitempty"`
	Style               *TypeStyle `json:"style,omitempty"`
	AbsoluteBoundingBox *Rectangle `json:"absoluteBoundingBox,omitempty"`
}

// Color represents an RGBA color with float values ranging from 0 to 1.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Paint represents a fill or stroke applied to a Figma node.
type Paint struct {
	Type  string `json:"type"`
	Color *Color `json:"color,omitempty"`
}

// TypeStyle represents text styling properties from Figma.
type TypeStyle struct {
	FontFamily          string  `json:"fontFamily"`
	FontPostScriptName  string  `json:"fontPostScriptName"`
	FontWeight          float64 `json:"fontWeight"`
	FontSize            float64 `json:"fontSize"`
	LineHeightPx        float64 `json:"lineHeightPx"`
	LetterSpacing       float64 `json:"letterSpacing"`
	TextAlignHorizontal string  `json:"textAlignHorizontal"`
}

// Rectangle represents a bounding box with position (X, Y) and dimensions (Width, Height).
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
