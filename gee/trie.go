package gee

import "strings"

// node is one path segment of the routing trie. A node whose pattern is set
// terminates a route; its handlers live in router.handlers keyed by method.
type node struct {
	pattern  string // 完整路由，只在终点节点上非空，如 /u/:alias
	segment  string // 本层片段，如 u、:alias、*filepath
	children []*node
}

func (n *node) wild() bool {
	return n.segment != "" && (n.segment[0] == ':' || n.segment[0] == '*')
}

func splitPath(p string) []string {
	segs := make([]string, 0, 4)
	for _, s := range strings.Split(p, "/") {
		if s == "" {
			continue
		}
		segs = append(segs, s)
		if s[0] == '*' {
			break // * 吞掉剩余部分
		}
	}
	return segs
}

// insert walks or creates one child per segment and marks the last one.
func (n *node) insert(pattern string, segs []string) {
	cur := n
	for _, seg := range segs {
		var next *node
		for _, c := range cur.children {
			if c.segment == seg {
				next = c
				break
			}
		}
		if next == nil {
			next = &node{segment: seg}
			cur.children = append(cur.children, next)
		}
		cur = next
	}
	cur.pattern = pattern
}

// search is depth-first; static children are tried before wildcards, so
// /u/stats wins over /u/:alias.
func (n *node) search(segs []string, depth int) *node {
	if depth == len(segs) || strings.HasPrefix(n.segment, "*") {
		if n.pattern == "" {
			return nil
		}
		return n
	}
	seg := segs[depth]
	for _, c := range n.children {
		if !c.wild() && c.segment == seg {
			if found := c.search(segs, depth+1); found != nil {
				return found
			}
		}
	}
	for _, c := range n.children {
		if c.wild() {
			if found := c.search(segs, depth+1); found != nil {
				return found
			}
		}
	}
	return nil
}

// params binds the :name and *name segments of pattern to the request path.
func params(pattern string, segs []string) map[string]string {
	out := make(map[string]string)
	for i, p := range splitPath(pattern) {
		switch p[0] {
		case ':':
			out[p[1:]] = segs[i]
		case '*':
			if len(p) > 1 {
				out[p[1:]] = strings.Join(segs[i:], "/")
			}
			return out
		}
	}
	return out
}
