package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// funcSite identifies one function for the type-flow tracer's output.
type funcSite struct {
	Name string
	File string
	Line int
}

// TypeNode is one type's produced_by/consumed_by relationship (§4.10).
type TypeNode struct {
	Name       string
	ProducedBy []funcSite
	ConsumedBy []funcSite
}

// CrossPackageFlow is one type observed flowing between two workspace
// packages: produced in From, consumed in To.
type CrossPackageFlow struct {
	Type string
	From string
	To   string
}

// TypeFlowGraph is the tracer's combined output.
type TypeFlowGraph struct {
	Types        []TypeNode
	CrossPackage []CrossPackageFlow
}

var returnArrow = regexp.MustCompile(`->\s*(.+)$`)

// splitParamsAndReturn separates a naively-captured signature into its
// parameter-list text and return-type text. The return type is whatever
// follows the first "->" in the signature (nested arrows are not told
// apart); the parameters are the text between the first "(" and the
// last ")", which is all a Python bare def without an arrow yields.
func splitParamsAndReturn(sig string) (params, ret string) {
	if m := returnArrow.FindStringSubmatch(sig); m != nil {
		ret = strings.TrimSpace(m[1])
	}
	open := strings.Index(sig, "(")
	close := strings.LastIndex(sig, ")")
	if open >= 0 && close > open {
		params = sig[open+1 : close]
	}
	return params, ret
}

// traceTypeFlow builds the produced_by/consumed_by graph and the
// cross-package coupling view (§4.10).
func traceTypeFlow(idx *ownerIndex) *TypeFlowGraph {
	produced := make(map[string][]funcSite)
	consumed := make(map[string][]funcSite)

	for i := range idx.funcs {
		rec := &idx.funcs[i]
		site := funcSite{Name: rec.Name, File: rec.File, Line: rec.Line}
		paramText, retText := splitParamsAndReturn(rec.Signature)

		for _, t := range signatureTypeNames(retText) {
			produced[t] = append(produced[t], site)
		}
		for _, t := range signatureTypeNames(paramText) {
			consumed[t] = append(consumed[t], site)
		}
	}

	names := make(map[string]bool, len(produced)+len(consumed))
	for n := range produced {
		names[n] = true
	}
	for n := range consumed {
		names[n] = true
	}

	nodes := make([]TypeNode, 0, len(names))
	for name := range names {
		nodes = append(nodes, TypeNode{Name: name, ProducedBy: produced[name], ConsumedBy: consumed[name]})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	for i := range nodes {
		sortSites(nodes[i].ProducedBy)
		sortSites(nodes[i].ConsumedBy)
	}

	return &TypeFlowGraph{Types: nodes, CrossPackage: crossPackageFlows(nodes, idx)}
}

func sortSites(sites []funcSite) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].File != sites[j].File {
			return sites[i].File < sites[j].File
		}
		return sites[i].Line < sites[j].Line
	})
}

// crossPackageFlows groups each type's producer/consumer owners by
// workspace package, emitting one flow per (producer package, consumer
// package) pair that differ — the cross-package coupling view.
func crossPackageFlows(nodes []TypeNode, idx *ownerIndex) []CrossPackageFlow {
	packageOf := make(map[string]string, len(idx.funcs))
	for i := range idx.funcs {
		rec := &idx.funcs[i]
		packageOf[rec.File+"#"+rec.Name] = rec.Package
	}

	var flows []CrossPackageFlow
	seen := make(map[string]bool)
	for _, node := range nodes {
		producerPkgs := packagesOf(node.ProducedBy, packageOf)
		consumerPkgs := packagesOf(node.ConsumedBy, packageOf)
		for from := range producerPkgs {
			for to := range consumerPkgs {
				if from == "" || to == "" || from == to {
					continue
				}
				key := node.Name + "|" + from + "|" + to
				if seen[key] {
					continue
				}
				seen[key] = true
				flows = append(flows, CrossPackageFlow{Type: node.Name, From: from, To: to})
			}
		}
	}
	sort.Slice(flows, func(i, j int) bool {
		if flows[i].Type != flows[j].Type {
			return flows[i].Type < flows[j].Type
		}
		if flows[i].From != flows[j].From {
			return flows[i].From < flows[j].From
		}
		return flows[i].To < flows[j].To
	})
	return flows
}

func packagesOf(sites []funcSite, packageOf map[string]string) map[string]bool {
	out := make(map[string]bool, len(sites))
	for _, s := range sites {
		out[packageOf[s.File+"#"+s.Name]] = true
	}
	return out
}
