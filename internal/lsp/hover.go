package lsp

import (
	"encoding/json"
	"unicode"
	"unicode/utf8"

	"ergols/internal/source"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params textDocumentPositionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, codeInvalidParams, "invalid params")
		}
	}
	text, ok := s.documentText(canonicalURI(params.TextDocument.URI))
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	result := buildHover(source.NewLines(text), params.Position)
	if result == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, result)
}

func buildHover(lines *source.Lines, pos position) *hover {
	word, start, end := lines.WordAt(offsetForPosition(lines, pos))
	if word == "" {
		return nil
	}
	if r, _ := utf8.DecodeRuneInString(word); unicode.IsDigit(r) {
		return nil
	}
	doc, ok := hoverDocs[word]
	if !ok {
		return nil
	}
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: doc},
		Range:    &lspRange{Start: positionForOffset(lines, start), End: positionForOffset(lines, end)},
	}
}

func (s *Server) documentText(uri string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.docs[uri]
	if doc == nil {
		return "", false
	}
	return doc.text, true
}
