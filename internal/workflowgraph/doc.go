// Package workflowgraph loads the ComfyUI job-graph template and patches
// deep copies of it for each generation. Nodes are addressed by their
// _meta.title marker strings, never by numeric id: the authoring tool
// regenerates ids freely, so the titles are the actual integration contract.
package workflowgraph
