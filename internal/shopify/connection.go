package shopify

import (
	"sort"

	"github.com/spf13/cast"
)

// Connection 响应中的 edges + pageInfo 分页信封
type Connection struct {
	Edges       []any
	HasNextPage bool
	EndCursor   string
}

func asConnection(v any) (*Connection, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	edges, hasEdges := m["edges"]
	pageInfo, hasPageInfo := m["pageInfo"]
	if !hasEdges || !hasPageInfo {
		return nil, false
	}
	conn := &Connection{}
	if list, ok := edges.([]any); ok {
		conn.Edges = list
	}
	if info, ok := pageInfo.(map[string]any); ok {
		conn.HasNextPage = cast.ToBool(info["hasNextPage"])
		conn.EndCursor = cast.ToString(info["endCursor"])
	}
	return conn, true
}

// FindConnection 优先取 data[field]，否则深度优先找第一个同时含 edges 和 pageInfo 的对象。
// 同层按 key 排序，结果稳定。
func FindConnection(data map[string]any, field string) (*Connection, bool) {
	if field != "" {
		if conn, ok := asConnection(data[field]); ok {
			return conn, true
		}
	}
	return findConnection(data)
}

func findConnection(v any) (*Connection, bool) {
	if conn, ok := asConnection(v); ok {
		return conn, true
	}
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if conn, ok := findConnection(t[k]); ok {
				return conn, true
			}
		}
	case []any:
		for _, item := range t {
			if conn, ok := findConnection(item); ok {
				return conn, true
			}
		}
	}
	return nil, false
}

// Nodes edges[].node，跳过没有 node 的 edge
func (c *Connection) Nodes() []map[string]any {
	nodes := make([]map[string]any, 0, len(c.Edges))
	for _, e := range c.Edges {
		edge, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if node, ok := edge["node"].(map[string]any); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
