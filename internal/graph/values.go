package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// normalizeValue converts driver values into JSON-friendly Go values. Nodes
// become their properties plus _id and _labels; relationships their
// properties plus _id, _type, _start and _end.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case dbtype.Node:
		return nodeMap(v)
	case dbtype.Relationship:
		return relationshipMap(v)
	case dbtype.Path:
		nodes := make([]any, 0, len(v.Nodes))
		for _, node := range v.Nodes {
			nodes = append(nodes, nodeMap(node))
		}
		rels := make([]any, 0, len(v.Relationships))
		for _, rel := range v.Relationships {
			rels = append(rels, relationshipMap(rel))
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case dbtype.Date:
		return v.Time().Format(time.DateOnly)
	case dbtype.LocalDateTime:
		return v.Time().Format("2006-01-02T15:04:05.999999999")
	case dbtype.LocalTime:
		return v.Time().Format("15:04:05.999999999")
	case dbtype.Time:
		return v.Time().Format("15:04:05.999999999Z07:00")
	case dbtype.Duration:
		return v.String()
	case dbtype.Point2D:
		return map[string]any{"srid": v.SpatialRefId, "x": v.X, "y": v.Y}
	case dbtype.Point3D:
		return map[string]any{"srid": v.SpatialRefId, "x": v.X, "y": v.Y, "z": v.Z}
	default:
		return v
	}
}

func nodeMap(node dbtype.Node) map[string]any {
	out := make(map[string]any, len(node.Props)+2)
	for key, value := range node.Props {
		out[key] = normalizeValue(value)
	}
	out["_id"] = node.ElementId
	out["_labels"] = append([]string{}, node.Labels...)
	return out
}

func relationshipMap(rel dbtype.Relationship) map[string]any {
	out := make(map[string]any, len(rel.Props)+4)
	for key, value := range rel.Props {
		out[key] = normalizeValue(value)
	}
	out["_id"] = rel.ElementId
	out["_type"] = rel.Type
	out["_start"] = rel.StartElementId
	out["_end"] = rel.EndElementId
	return out
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
