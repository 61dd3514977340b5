package onec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"

// countElements report a total without carrying items; a response that
// consists only of these is an empty result set, not a malformed envelope
var countElements = map[string]bool{
	"Count":      true,
	"Total":      true,
	"TotalCount": true,
	"Количество": true,
}

// buildRequestEnvelope renders the SOAP 1.1 request for a no-argument
// method call in the service namespace
func buildRequestEnvelope(method, namespace string) ([]byte, error) {
	type methodCall struct {
		XMLName xml.Name
	}
	type body struct {
		XMLName xml.Name `xml:"soap:Body"`
		Call    methodCall
	}
	type envelope struct {
		XMLName xml.Name `xml:"soap:Envelope"`
		SoapNS  string   `xml:"xmlns:soap,attr"`
		Body    body
	}

	env := envelope{
		SoapNS: soapEnvelopeNS,
		Body: body{
			Call: methodCall{XMLName: xml.Name{Space: namespace, Local: method}},
		},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("onec: failed to build request envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// xmlNode is a generic element tree. The remote configuration controls the
// response schema, so decoding into fixed structs is not an option.
type xmlNode struct {
	XMLName  xml.Name
	Content  string    `xml:",chardata"`
	Children []xmlNode `xml:",any"`
}

func (n *xmlNode) local() string {
	return n.XMLName.Local
}

func (n *xmlNode) text() string {
	return strings.TrimSpace(n.Content)
}

// isLeaf reports whether the node carries a scalar value
func (n *xmlNode) isLeaf() bool {
	return len(n.Children) == 0
}

func (n *xmlNode) childNamed(local string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].local() == local {
			return &n.Children[i]
		}
	}
	return nil
}

// soapFault is the portion of a Fault element we surface in diagnostics
type soapFault struct {
	Code   string `xml:"faultcode"`
	Reason string `xml:"faultstring"`
}

func (f *soapFault) Error() string {
	if f.Code != "" {
		return fmt.Sprintf("onec: SOAP fault %s: %s", f.Code, f.Reason)
	}
	return "onec: SOAP fault: " + f.Reason
}

// parseResponseEnvelope walks the response down to the method result
// element. A Fault body returns the fault as an error; a body without a
// result element is malformed.
func parseResponseEnvelope(raw []byte) (*xmlNode, error) {
	var env xmlNode
	if err := xml.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.local() != "Envelope" {
		return nil, fmt.Errorf("%w: unexpected root element %q", ErrMalformedEnvelope, env.local())
	}
	bodyNode := env.childNamed("Body")
	if bodyNode == nil {
		return nil, fmt.Errorf("%w: missing Body", ErrMalformedEnvelope)
	}

	if faultNode := bodyNode.childNamed("Fault"); faultNode != nil {
		fault := &soapFault{}
		if code := faultNode.childNamed("faultcode"); code != nil {
			fault.Code = code.text()
		}
		if reason := faultNode.childNamed("faultstring"); reason != nil {
			fault.Reason = reason.text()
		}
		return nil, fault
	}

	if len(bodyNode.Children) == 0 {
		return nil, fmt.Errorf("%w: empty Body", ErrMalformedEnvelope)
	}
	// First non-fault child is the <MethodResponse> element
	return &bodyNode.Children[0], nil
}

// unwrapResult extracts the flat record list from a method response.
// The remote side wraps results inconsistently across configuration
// versions, so several shapes are accepted in order of preference:
//
//  1. a `return` wrapper holding a named item array (itemName per kind)
//  2. a `return` wrapper that is itself a uniform list of records
//  3. a `return` wrapper reporting only a count, meaning zero results
//  4. a single record not wrapped in any list
//
// The returned count is the remote-reported total for the count-only
// shape, -1 otherwise.
func unwrapResult(response *xmlNode, itemName string) ([]*xmlNode, int, error) {
	wrapper := response.childNamed("return")
	if wrapper == nil {
		// Some configurations skip the wrapper and put items directly
		// under the response element
		wrapper = response
	}

	if items := collectNamed(wrapper, itemName); len(items) > 0 {
		return items, -1, nil
	}

	if count, ok := countOnly(wrapper); ok {
		return nil, count, nil
	}

	if items := uniformList(wrapper); len(items) > 0 {
		return items, -1, nil
	}

	// A lone record arrives with its fields as direct children
	if looksLikeRecord(wrapper) {
		return []*xmlNode{wrapper}, -1, nil
	}

	if len(wrapper.Children) == 0 && wrapper.text() == "" {
		return nil, 0, nil
	}
	return nil, -1, fmt.Errorf("%w: unrecognized result shape under %q", ErrMalformedEnvelope, wrapper.local())
}

func collectNamed(wrapper *xmlNode, itemName string) []*xmlNode {
	var items []*xmlNode
	for i := range wrapper.Children {
		if wrapper.Children[i].local() == itemName {
			items = append(items, &wrapper.Children[i])
		}
	}
	return items
}

// countOnly matches a wrapper whose only non-scalar content is a count
func countOnly(wrapper *xmlNode) (int, bool) {
	var count = -1
	for i := range wrapper.Children {
		child := &wrapper.Children[i]
		if !countElements[child.local()] {
			return 0, false
		}
		n, err := strconv.Atoi(child.text())
		if err != nil {
			return 0, false
		}
		count = n
	}
	if count < 0 {
		return 0, false
	}
	return count, true
}

// uniformList matches a wrapper whose children are repeated record
// elements sharing one name
func uniformList(wrapper *xmlNode) []*xmlNode {
	if len(wrapper.Children) == 0 {
		return nil
	}
	name := wrapper.Children[0].local()
	items := make([]*xmlNode, 0, len(wrapper.Children))
	for i := range wrapper.Children {
		child := &wrapper.Children[i]
		if child.local() != name || !looksLikeRecord(child) {
			return nil
		}
		items = append(items, child)
	}
	return items
}

// looksLikeRecord reports whether the node's children are scalar fields
func looksLikeRecord(node *xmlNode) bool {
	if len(node.Children) == 0 {
		return false
	}
	for i := range node.Children {
		if !node.Children[i].isLeaf() {
			return false
		}
	}
	return true
}
