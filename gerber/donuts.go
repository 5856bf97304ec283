package gerber

import (
	"strconv"

	"github.com/benoitkugler/pcbexport/svgraster"
	"github.com/benoitkugler/pcbexport/svgtree"
)

// rewriteDonuts replaces ring-shaped pad paths with plain circles. A pad
// drawn as a ring path is functionally a circle with a drilled hole; the
// emitter consumes the circle natively where the path would fall through to
// the raster fallback. The rewrite happens in place, so the element keeps
// its id and its slot in both document trees.
func rewriteDonuts(doc *svgtree.Document, connectors ConnectorMap) {
	if len(connectors) == 0 {
		return
	}
	ids := make(map[string]bool)
	for _, conns := range connectors {
		for _, c := range conns {
			ids[c.SvgID] = true
		}
	}

	geos, err := svgraster.LeafBounds(doc, svgraster.IgnoreErrorMode)
	if err != nil {
		Logger().Warn("donut rewrite skipped", "error", err)
		return
	}

	for _, path := range doc.ElementsByTag("path") {
		id := path.ID()
		if id == "" || !ids[id] {
			continue
		}
		conn, ok := findConnector(path, connectors, id)
		if !ok {
			continue
		}
		geo, ok := geos[path.Serial]
		if !ok {
			continue
		}
		cx, cy := geo.Bounds.Center()

		path.Tag = "circle"
		path.RemoveAttribute("d")
		path.RemoveAttribute("transform")
		path.RemoveAttribute("style")
		path.SetAttribute("cx", ftoa(cx))
		path.SetAttribute("cy", ftoa(cy))
		path.SetAttribute("r", ftoa(conn.Radius*dpiScale))
		path.SetAttribute("stroke-width", ftoa(conn.StrokeWidth*dpiScale))
		path.SetAttribute("fill", "none")
		path.SetAttribute("stroke", "black")
	}
}

// findConnector resolves which connector a path belongs to, walking up to
// the nearest ancestor carrying a partID; svg ids are only unique within
// one part, so the part has to disambiguate.
func findConnector(path *svgtree.Element, connectors ConnectorMap, id string) (Connector, bool) {
	for parent := path.Parent; parent != nil; parent = parent.Parent {
		pid := parent.Attribute("partID")
		if pid == "" {
			continue
		}
		n, _ := strconv.ParseInt(pid, 10, 64)
		conns := connectors[n]
		if len(conns) == 0 {
			return Connector{}, false
		}
		for _, c := range conns {
			if c.SvgID == id {
				return c, true
			}
		}
	}
	return Connector{}, false
}
