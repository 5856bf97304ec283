// Package gerber turns the vector drawing of a PCB layer into sanitized,
// board-clipped documents a Gerber emitter can translate losslessly, and
// drives the per-layer export sequence (copper, solder mask, paste mask,
// silkscreen, drill, outline).
//
// The output format knows only straight segments, plain unrotated circles
// and simple closed paths, so each layer document runs through a fixed
// pipeline: unsupported features are squashed to neutral groups, ring-shaped
// pads become exact circles, outline cutouts are split into sibling
// contours, geometry off the board is clipped away, and whatever was
// squashed is rasterized on a monochrome grid and re-traced as horizontal
// runs. Rendering, emission and outline polygon reconstruction are
// pluggable collaborators.
package gerber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/benoitkugler/pcbexport/svgpath"
	"github.com/benoitkugler/pcbexport/svgraster"
)

// Output file suffixes, one per layer.
const (
	SilkTopSuffix         = "_silkTop.gto"
	SilkBottomSuffix      = "_silkBottom.gbo"
	CopperTopSuffix       = "_copperTop.gtl"
	CopperBottomSuffix    = "_copperBottom.gbl"
	MaskTopSuffix         = "_maskTop.gts"
	MaskBottomSuffix      = "_maskBottom.gbs"
	PasteMaskTopSuffix    = "_pasteMaskTop.gtp"
	PasteMaskBottomSuffix = "_pasteMaskBottom.gbp"
	DrillSuffix           = "_drill.txt"
	OutlineSuffix         = "_contour.gm1"
	// PickAndPlaceSuffix names the placement report, which is produced by
	// an external collaborator.
	PickAndPlaceSuffix = "_pnp.xy"
)

// MagicBoardOutlineID marks the leaf that is the authored board outline.
const MagicBoardOutlineID = "boardoutline"

// NonConnectorName marks circles that are bare drilled holes, without a pad.
const NonConnectorName = "nonconn"

// MaskClearanceMils is the solder mask clearance around a pad, per side.
const MaskClearanceMils = 5

const (
	// AuthoringDPI is the resolution of board rects and connector
	// measurements coming from the design tool.
	AuthoringDPI = 90
	// OutputDPI is the resolution of layer documents and of the raster
	// grid: 1 unit = 1 mil.
	OutputDPI = 1000
)

// dpiScale converts authoring units to output units.
const dpiScale = float64(OutputDPI) / float64(AuthoringDPI)

// Bounds is an axis-aligned rectangle; the board rect is one, in authoring
// units.
type Bounds = svgpath.Bounds

// LayerKind tells the emitter what a document stands for.
type LayerKind uint8

const (
	ForCopper LayerKind = iota
	ForMask
	ForPasteMask
	ForSilk
	ForDrill
	ForOutline
)

// Connector describes one connector of a placed part, in authoring units.
type Connector struct {
	AttachedTo  int64  // owning part, matches the partID document attribute
	SvgID       string // leaf id in the layer document
	Radius      float64
	StrokeWidth float64
	IsPath      bool // drawn as a ring path rather than a plain circle
}

// ConnectorMap indexes the connectors of each part by part id.
type ConnectorMap map[int64][]Connector

// donutCandidates keeps the connectors drawn as ring paths with a recorded
// radius; only those are rewritten to circles.
func (m ConnectorMap) donutCandidates() ConnectorMap {
	out := make(ConnectorMap)
	for id, conns := range m {
		for _, c := range conns {
			if c.IsPath && c.Radius != 0 {
				out[id] = append(out[id], c)
			}
		}
	}
	return out
}

// LayerRenderer produces the vector document for a named export layer. The
// exporter passes one canonical name per layer (Copper0, Copper1, Mask0,
// Mask1, PasteMask0, PasteMask1, Silk0, Silk1, drill, contour); the
// renderer decides which design layers compose it. empty means the layer
// holds no ink.
type LayerRenderer interface {
	Render(layers []string) (svg string, empty bool, err error)
}

// Emitter translates a sanitized document into manufacturing bytes.
type Emitter interface {
	Emit(svg string, twoSided bool, name string, kind LayerKind) (EmitResult, error)
}

// EmitResult is the emitter's output: the file content and the number of
// primitives it could not translate.
type EmitResult struct {
	Content string
	Invalid int
}

// PolygonExtractor rebuilds closed polygons from a rendered outline bitmap
// (ink white on black); the returned strings are complete svg elements.
// unit is the document length of one pixel.
type PolygonExtractor interface {
	Extract(bm *svgraster.Bitmap, unit float64) ([]string, error)
}

// Warning is a user-facing diagnostic tied to a layer; the aggregate
// warning at the end of an export carries no layer.
type Warning struct {
	Layer   string
	Message string
}

// Options configures an Exporter.
type Options struct {
	// TwoSided adds the top copper, mask, paste mask and silk layers.
	TwoSided bool
	// Connectors drives donut-to-circle rewriting on copper and drill
	// layers.
	Connectors ConnectorMap
	// Extractor rebuilds outline polygons; without it a rasterized
	// outline cannot be vectorized.
	Extractor PolygonExtractor
	// Interactive routes diagnostics to Dialog instead of the package
	// logger.
	Interactive bool
	Dialog      func(string)
}

// Exporter drives a whole-board export.
type Exporter struct {
	renderer LayerRenderer
	emitter  Emitter
	opts     Options

	warnings []Warning
}

// NewExporter assembles an exporter from its collaborators.
func NewExporter(renderer LayerRenderer, emitter Emitter, opts Options) *Exporter {
	return &Exporter{renderer: renderer, emitter: emitter, opts: opts}
}

// Export runs every layer of the board through the pipeline and writes one
// file per layer under dir, named prefix plus the layer suffix. board is
// the board's bounding rectangle in authoring units; its origin is
// normalized to (0,0). The returned warnings are the user-facing
// diagnostics of the run; the error reports only unusable input, never a
// single layer's failure.
func (ex *Exporter) Export(dir, prefix string, board Bounds) ([]Warning, error) {
	if board.Empty() {
		return nil, errors.New("empty board rectangle")
	}
	board.X, board.Y = 0, 0
	ex.warnings = nil

	donuts := ex.opts.Connectors.donutCandidates()

	copperInvalid := ex.doCopper("Copper0", CopperBottomSuffix, dir, prefix, board, donuts)
	if ex.opts.TwoSided {
		copperInvalid += ex.doCopper("Copper1", CopperTopSuffix, dir, prefix, board, donuts)
	}

	var maskBottom, maskTop string
	maskInvalid := ex.doMask("Mask0", MaskBottomSuffix, dir, prefix, board, &maskBottom)
	if ex.opts.TwoSided {
		maskInvalid += ex.doMask("Mask1", MaskTopSuffix, dir, prefix, board, &maskTop)
	}

	pasteInvalid := ex.doPasteMask("PasteMask0", PasteMaskBottomSuffix, dir, prefix, board)
	if ex.opts.TwoSided {
		pasteInvalid += ex.doPasteMask("PasteMask1", PasteMaskTopSuffix, dir, prefix, board)
	}

	silkInvalid := ex.doSilk("Silk1", SilkTopSuffix, true, dir, prefix, board, maskTop)
	silkInvalid += ex.doSilk("Silk0", SilkBottomSuffix, false, dir, prefix, board, maskBottom)

	ex.doDrill(dir, prefix, board, donuts)
	outlineInvalid := ex.doOutline(dir, prefix, board)

	if outlineInvalid > 0 || silkInvalid > 0 || copperInvalid > 0 || maskInvalid > 0 || pasteInvalid > 0 {
		var s string
		if outlineInvalid > 0 {
			s += "the board outline layer, "
		}
		if silkInvalid > 0 {
			s += "silkscreen layer(s), "
		}
		if copperInvalid > 0 {
			s += "copper layer(s), "
		}
		if maskInvalid > 0 {
			s += "mask layer(s), "
		}
		if pasteInvalid > 0 {
			s += "paste mask layer(s), "
		}
		s = strings.TrimSuffix(s, ", ")
		ex.displayMessage("", "Unable to translate svg curves in "+s)
	}

	return ex.warnings, nil
}

func (ex *Exporter) doCopper(name, suffix, dir, prefix string, board Bounds, donuts ConnectorMap) int {
	svg, empty, err := ex.render(name)
	if err != nil || empty || svg == "" {
		ex.displayMessage(name, fmt.Sprintf("%s layer export is empty.", name))
		return 0
	}
	clipped, converted, _ := clipToBoard(svg, clipSpec{
		name: name, kind: ForCopper, board: board, connectors: donuts,
	})
	if clipped == "" {
		ex.displayMessage(name, fmt.Sprintf("%s layer export is empty (case 2).", name))
		return 0
	}
	return ex.emitAndSave(clipped, name, ForCopper, dir, prefix, suffix, converted)
}

func (ex *Exporter) doMask(name, suffix, dir, prefix string, board Bounds, clipOut *string) int {
	svg, empty, err := ex.render(name)
	if err != nil || empty || svg == "" {
		ex.displayMessage(name, fmt.Sprintf("exported mask layer %s is empty", name))
		return 0
	}
	expanded, ok := expandMask(svg)
	if !ok {
		ex.displayMessage(name, fmt.Sprintf("%s mask export failure (2)", name))
		return 0
	}
	clipped, converted, _ := clipToBoard(expanded, clipSpec{
		name: name, kind: ForMask, board: board,
	})
	if clipped == "" {
		ex.displayMessage(name, "mask export failure")
		return 0
	}
	// the clipped mask also clips the matching silk layer
	*clipOut = clipped
	return ex.emitAndSave(clipped, name, ForMask, dir, prefix, suffix, converted)
}

func (ex *Exporter) doPasteMask(name, suffix, dir, prefix string, board Bounds) int {
	svg, empty, err := ex.render(name)
	if err != nil || empty || svg == "" {
		ex.displayMessage(name, "exported paste mask layer is empty")
		return 0
	}
	clipped, converted, _ := clipToBoard(svg, clipSpec{
		name: name, kind: ForPasteMask, board: board,
	})
	if clipped == "" {
		ex.displayMessage(name, "mask export failure")
		return 0
	}
	return ex.emitAndSave(clipped, name, ForPasteMask, dir, prefix, suffix, converted)
}

func (ex *Exporter) doSilk(name, suffix string, top bool, dir, prefix string, board Bounds, clip string) int {
	svg, empty, err := ex.render(name)
	if err != nil || empty || svg == "" {
		if top {
			ex.displayMessage(name, fmt.Sprintf("silk layer %s export is empty", name))
		}
		return 0
	}
	clipped, converted, _ := clipToBoard(svg, clipSpec{
		name: name, kind: ForSilk, board: board, clip: clip,
	})
	if clipped == "" {
		ex.displayMessage(name, "silk export failure")
		return 0
	}
	return ex.emitAndSave(clipped, name, ForSilk, dir, prefix, suffix, converted)
}

func (ex *Exporter) doDrill(dir, prefix string, board Bounds, donuts ConnectorMap) int {
	svg, empty, err := ex.render("drill")
	if err != nil || empty || svg == "" {
		ex.displayMessage("drill", "exported drill file is empty")
		return 0
	}
	clipped, converted, _ := clipToBoard(svg, clipSpec{
		name: "drill", kind: ForDrill, board: board, connectors: donuts,
	})
	if clipped == "" {
		ex.displayMessage("drill", "drill export failure")
		return 0
	}
	return ex.emitAndSave(clipped, "drill", ForDrill, dir, prefix, DrillSuffix, converted)
}

func (ex *Exporter) doOutline(dir, prefix string, board Bounds) int {
	svg, empty, err := ex.render("contour")
	if err != nil || empty || svg == "" {
		ex.displayMessage("contour", "outline is empty")
		return 0
	}
	svg = cleanOutline(svg)
	if svg == "" {
		ex.displayMessage("contour", "outline is empty")
		return 0
	}
	clipped, converted, err := clipToBoard(svg, clipSpec{
		name: "board", kind: ForOutline, board: board, extractor: ex.opts.Extractor,
	})
	if err != nil {
		// bad cutout authoring is fatal for the outline export only
		ex.displayMessage("contour", err.Error())
		return 0
	}
	if clipped == "" {
		ex.displayMessage("contour", "outline is empty")
		return 0
	}
	return ex.emitAndSave(clipped, "contour", ForOutline, dir, prefix, OutlineSuffix, converted)
}

// render asks the layer renderer for one export layer.
func (ex *Exporter) render(name string) (string, bool, error) {
	svg, empty, err := ex.renderer.Render([]string{name})
	if err != nil {
		Logger().Warn("layer render failed", "layer", name, "error", err)
	}
	return svg, empty, err
}

// emitAndSave translates the document and writes the result, returning the
// translation-loss count for the aggregate warning: the emitter's invalid
// primitives, plus one when the layer went through the raster fallback.
func (ex *Exporter) emitAndSave(svg, name string, kind LayerKind, dir, prefix, suffix string, converted bool) int {
	invalid := 0
	if converted {
		invalid++
	}
	res, err := ex.emitter.Emit(svg, ex.opts.TwoSided, name, kind)
	if err != nil {
		ex.displayMessage(name, fmt.Sprintf("%s layer: %s", name, err))
		return invalid
	}
	ex.save(name, dir, prefix, suffix, res.Content)
	return invalid + res.Invalid
}

// save writes one layer file; a failure is reported and does not stop the
// remaining layers.
func (ex *Exporter) save(name, dir, prefix, suffix, content string) bool {
	outname := filepath.Join(dir, prefix+suffix)
	if err := os.WriteFile(outname, []byte(content), 0o644); err != nil {
		ex.displayMessage(name, fmt.Sprintf("%s layer: unable to save to '%s'", name, outname))
		return false
	}
	return true
}

// displayMessage surfaces a user-facing diagnostic: through the dialog when
// interactive, through the package logger otherwise. Every message is also
// recorded as a Warning for the Export caller.
func (ex *Exporter) displayMessage(layer, msg string) {
	ex.warnings = append(ex.warnings, Warning{Layer: layer, Message: msg})
	if ex.opts.Interactive && ex.opts.Dialog != nil {
		ex.opts.Dialog(msg)
		return
	}
	Logger().Warn(msg, "layer", layer)
}
