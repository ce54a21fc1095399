package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strconv"

	"github.com/ironsheep/symbol-segmenter/internal/classify"
	"github.com/ironsheep/symbol-segmenter/internal/detection"
	"github.com/ironsheep/symbol-segmenter/internal/expr"
	"github.com/ironsheep/symbol-segmenter/internal/imaging"
	"github.com/ironsheep/symbol-segmenter/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "symbols_segment").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// whose data is the user-facing pipeline message.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Info().Str("tool", params.Name).Err(err).Msg("tool failed")
		return s.errorResponse(req.ID, codeToolError, "Tool execution failed", pipeline.Classify(err).Msg)
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "symbols_segment":
		return s.handleSymbolsSegment(ctx, args)
	case "symbols_regions":
		return s.handleSymbolsRegions(args)
	case "symbols_crops":
		return s.handleSymbolsCrops(args)
	case "symbols_evaluate":
		return s.handleSymbolsEvaluate(args)
	case "symbols_vocabulary":
		return s.handleSymbolsVocabulary()
	case "image_info":
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// imageSource names the input image of a tool call: a file path or a base64
// payload, optionally wrapped in a data URL.
type imageSource struct {
	Path      string `json:"path"`
	ImageData string `json:"image_data"`
	Reload    bool   `json:"reload"`
}

// load resolves the source. Paths go through the cache unless Reload is set;
// inline data is decoded every time.
func (s *Server) load(src imageSource) (image.Image, error) {
	switch {
	case src.Path != "":
		if src.Reload {
			s.cache.Evict(src.Path)
		}
		return s.cache.Load(src.Path)
	case src.ImageData != "":
		return imaging.DecodeBase64(src.ImageData)
	}
	return nil, pipeline.MissingArgument()
}

// === Segmentation Handlers ===

type symbolsSegmentArgs struct {
	imageSource
	Evaluate      *bool    `json:"evaluate,omitempty"`
	MinConfidence *float64 `json:"min_confidence,omitempty"`
	Details       bool     `json:"details"`
}

// predictionDetail is one reported symbol with its confidence and bounds.
type predictionDetail struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Bounds     rect    `json:"bounds"`
}

type segmentDetails struct {
	Result         *pipeline.Result   `json:"result"`
	Predictions    []predictionDetail `json:"predictions"`
	MeanConfidence float64            `json:"mean_confidence"`
}

func (s *Server) handleSymbolsSegment(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a symbolsSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MinConfidence != nil && (*a.MinConfidence < 0 || *a.MinConfidence > 1) {
		return nil, fmt.Errorf("min_confidence must be between 0.0-1.0, got %f", *a.MinConfidence)
	}
	img, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	opts := s.opts
	if a.Evaluate != nil {
		opts.Evaluate = *a.Evaluate
	}
	if a.MinConfidence != nil {
		opts.MinConfidence = *a.MinConfidence
	}
	res, err := pipeline.New(s.classifier, opts, s.log).Process(ctx, img)
	if err != nil || !a.Details {
		return res, err
	}

	details := &segmentDetails{
		Result:         res,
		Predictions:    make([]predictionDetail, 0, len(res.Symbols)),
		MeanConfidence: res.MeanConfidence(),
	}
	for _, sym := range res.Symbols {
		details.Predictions = append(details.Predictions, predictionDetail{
			Index:      sym.Index,
			Label:      sym.Label,
			Confidence: sym.Confidence,
			Bounds:     toRect(sym.Bounds),
		})
	}
	return details, nil
}

type symbolsRegionsArgs struct {
	imageSource
	Annotate bool   `json:"annotate"`
	BoxColor string `json:"box_color"`
}

// symbolBox is a surviving symbol together with its clamped crop rectangle.
type symbolBox struct {
	Index  int              `json:"index"`
	Region detection.Region `json:"region"`
	Crop   rect             `json:"crop"`
}

type rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func toRect(r image.Rectangle) rect {
	return rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

type regionsResult struct {
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	Raw       []detection.Region  `json:"raw"`
	Filtered  []detection.Region  `json:"filtered"`
	Ordered   []detection.Region  `json:"ordered"`
	Symbols   []symbolBox         `json:"symbols"`
	Annotated *imaging.CropResult `json:"annotated,omitempty"`
}

func (s *Server) handleSymbolsRegions(args json.RawMessage) (interface{}, error) {
	var a symbolsRegionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.BoxColor == "" {
		a.BoxColor = "#FF0000"
	}
	img, err := s.load(a.imageSource)
	if err != nil {
		return nil, err
	}

	seg := pipeline.New(nil, s.opts, s.log).Segment(img)
	res := &regionsResult{
		Width:    seg.Mask.Bounds().Dx(),
		Height:   seg.Mask.Bounds().Dy(),
		Raw:      nonNil(seg.Raw),
		Filtered: nonNil(seg.Filtered),
		Ordered:  nonNil(seg.Ordered),
		Symbols:  []symbolBox{},
	}
	boxes := make([]imaging.Box, 0, len(seg.Symbols))
	for _, sym := range seg.Symbols {
		res.Symbols = append(res.Symbols, symbolBox{
			Index:  sym.Index,
			Region: sym.Region,
			Crop:   toRect(sym.Rect),
		})
		boxes = append(boxes, imaging.Box{Rect: sym.Rect, Label: strconv.Itoa(sym.Index)})
	}

	if a.Annotate {
		annotated, err := imaging.EncodeCrop(imaging.Annotate(img, boxes, a.BoxColor))
		if err != nil {
			return nil, err
		}
		res.Annotated = annotated
	}
	return res, nil
}

func nonNil(regions []detection.Region) []detection.Region {
	if regions == nil {
		return []detection.Region{}
	}
	return regions
}

type symbolCrop struct {
	Index int  `json:"index"`
	Crop  rect `json:"crop"`
	*imaging.CropResult
}

func (s *Server) handleSymbolsCrops(args json.RawMessage) (interface{}, error) {
	var a imageSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}

	seg := pipeline.New(nil, s.opts, s.log).Segment(img)
	crops := make([]symbolCrop, 0, len(seg.Symbols))
	for _, sym := range seg.Symbols {
		encoded, err := imaging.EncodeCrop(sym.Image)
		if err != nil {
			return nil, err
		}
		crops = append(crops, symbolCrop{Index: sym.Index, Crop: toRect(sym.Rect), CropResult: encoded})
	}
	return map[string]interface{}{
		"count": len(crops),
		"crops": crops,
	}, nil
}

// === Expression and Vocabulary Handlers ===

type symbolsEvaluateArgs struct {
	Expression string `json:"expression"`
}

type evaluateResult struct {
	Expression string   `json:"expression"`
	Result     string   `json:"result"`
	Value      *float64 `json:"value,omitempty"`
}

func (s *Server) handleSymbolsEvaluate(args json.RawMessage) (interface{}, error) {
	var a symbolsEvaluateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	res := &evaluateResult{Expression: a.Expression}
	v, err := expr.Evaluate(a.Expression)
	if err != nil {
		res.Result = "Error: " + err.Error()
		return res, nil
	}
	res.Result = expr.Format(v)
	res.Value = &v
	return res, nil
}

func (s *Server) handleSymbolsVocabulary() (interface{}, error) {
	return map[string]interface{}{
		"labels":  classify.Vocabulary,
		"unknown": classify.Unknown,
	}, nil
}

// === Basic Image Information ===

type imageInfoResult struct {
	imaging.ImageInfo
	InkFraction float64 `json:"ink_fraction"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageSource
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.load(a)
	if err != nil {
		return nil, err
	}
	mask := imaging.Binarize(img, s.opts.Binarize)
	return &imageInfoResult{
		ImageInfo:   imaging.Describe(img),
		InkFraction: imaging.InkFraction(mask),
	}, nil
}
