package watcher

import (
	"fmt"
	"strings"

	"github.com/xhad/examaid/internal/models"
)

// Route is the extraction path chosen for a payload.
type Route int

const (
	RouteNone Route = iota
	RouteText
	RouteOCR
	RouteVision
	// RouteUnsupported is an image that the configured strategy cannot read.
	RouteUnsupported
)

func (r Route) String() string {
	switch r {
	case RouteNone:
		return "none"
	case RouteText:
		return "text"
	case RouteOCR:
		return "ocr"
	case RouteVision:
		return "vision"
	case RouteUnsupported:
		return "unsupported"
	}
	return fmt.Sprintf("route(%d)", int(r))
}

// ExtractionStrategy decides what happens to clipboard images.
type ExtractionStrategy int

const (
	StrategyPassThrough ExtractionStrategy = iota
	StrategyOCR
	StrategyVision
)

func (s ExtractionStrategy) String() string {
	switch s {
	case StrategyPassThrough:
		return "passthrough"
	case StrategyOCR:
		return "ocr"
	case StrategyVision:
		return "vision"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a config value to a strategy.
func ParseStrategy(s string) (ExtractionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passthrough", "pass-through", "text":
		return StrategyPassThrough, nil
	case "ocr":
		return StrategyOCR, nil
	case "vision":
		return StrategyVision, nil
	}
	return 0, fmt.Errorf("unknown extraction strategy %q", s)
}

type Classifier struct {
	Strategy ExtractionStrategy
}

// Route picks the extraction path for p. Image bytes take precedence over
// any text in the same payload.
func (c Classifier) Route(p models.Payload) Route {
	switch {
	case p.IsImage():
		switch c.Strategy {
		case StrategyOCR:
			return RouteOCR
		case StrategyVision:
			return RouteVision
		default:
			return RouteUnsupported
		}
	case strings.TrimSpace(p.Text) != "":
		return RouteText
	default:
		return RouteNone
	}
}
