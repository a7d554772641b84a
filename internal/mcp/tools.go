package mcp

import (
	"context"
	"errors"

	"juradoc/internal/corpus"
	"juradoc/internal/source/beck"
)

// initTools defines schemas and descriptions surfaced to clients. Tools
// against the subscription portal are only advertised when it is wired.
func (srv *Server) initTools() {
	docIDSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": map[string]any{"type": "string", "description": "Document identifier or full document URL."},
		},
		"required": []string{"id"},
	}
	formatProp := map[string]any{
		"type": "string", "enum": []string{beck.FormatMarkdown, beck.FormatHTML}, "default": beck.FormatMarkdown,
	}

	var tools []ToolDesc
	if srv.Beck != nil {
		tools = append(tools,
			ToolDesc{
				Name:        "beck_search",
				Description: "Full-text search on the subscription legal portal. Exact citations may resolve to a single direct hit.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query":          map[string]any{"type": "string"},
						"page":           map[string]any{"type": "integer", "minimum": 1, "default": 1},
						"category":       map[string]any{"type": "string", "enum": beck.Categories()},
						"only_available": map[string]any{"type": "boolean", "default": false},
					},
					"required": []string{"query"},
				},
			},
			ToolDesc{
				Name:        "beck_get_document",
				Description: "Fetch one document by identifier or URL, converted to markdown (or raw HTML).",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":     map[string]any{"type": "string", "description": "Document identifier or full document URL."},
						"format": formatProp,
					},
					"required": []string{"id"},
				},
			},
			ToolDesc{
				Name:        "beck_get_legislation",
				Description: "Fetch one statute section by abbreviation and section number, e.g. BGB 823.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"abbreviation": map[string]any{"type": "string"},
						"section":      map[string]any{"type": "string"},
						"format":       formatProp,
					},
					"required": []string{"abbreviation", "section"},
				},
			},
			ToolDesc{
				Name:        "beck_resolve_citation",
				Description: "Resolve a citation string to a document identifier; fails rather than guesses when ambiguous.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"citation": map[string]any{"type": "string"},
					},
					"required": []string{"citation"},
				},
			},
			ToolDesc{
				Name:        "beck_get_suggestions",
				Description: "Autocomplete suggestions for a partial citation or search term.",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"term": map[string]any{"type": "string"},
					},
					"required": []string{"term"},
				},
			},
			ToolDesc{
				Name:        "beck_get_context",
				Description: "Breadcrumb trail and previous/next siblings of a document.",
				InputSchema: docIDSchema,
			},
			ToolDesc{
				Name:        "beck_get_referenced_documents",
				Description: "Outbound citation links of a document.",
				InputSchema: docIDSchema,
			},
		)
	}

	tools = append(tools,
		ToolDesc{
			Name:        "gii_get_legislation",
			Description: "Fetch one statute section from the free public portal (gesetze-im-internet.de).",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"abbreviation": map[string]any{"type": "string"},
					"section":      map[string]any{"type": "string"},
				},
				"required": []string{"abbreviation", "section"},
			},
		},
		ToolDesc{
			Name:        "corpus_ingest",
			Description: "Index fetched documents into a per-session research corpus.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string", "description": "Omit to start a new session."},
					"docs": map[string]any{"type": "array", "items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"vpath": map[string]any{"type": "string"},
							"title": map[string]any{"type": "string"},
							"text":  map[string]any{"type": "string"},
						},
						"required": []string{"text"},
					}},
				},
				"required": []string{"docs"},
			},
		},
		ToolDesc{
			Name:        "corpus_search",
			Description: "BM25 search over a session's ingested corpus.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"session_id": map[string]any{"type": "string"},
					"q":          map[string]any{"type": "string"},
					"k":          map[string]any{"type": "integer", "minimum": 1, "maximum": 50, "default": 10},
				},
				"required": []string{"session_id", "q"},
			},
		},
	)
	srv.tools = tools
}

// ---------- Tool handlers ----------

func (srv *Server) tBeckSearch(ctx context.Context, args map[string]any) (map[string]any, error) {
	query := str(args["query"])
	if query == "" {
		return nil, errors.New("query is required")
	}
	page := asInt(args["page"])
	if page < 1 {
		page = 1
	}
	res, err := srv.Beck.Search(ctx, query, page, str(args["category"]), asBool(args["only_available"]))
	if err != nil {
		return nil, err
	}
	hits := make([]map[string]any, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, map[string]any{
			"title": h.Title, "type": h.Type, "vpath": h.VPath, "link": h.Link,
		})
	}
	return map[string]any{"hits": hits, "direct_hit": res.DirectHit, "page": res.Page}, nil
}

func (srv *Server) tBeckGetDocument(ctx context.Context, args map[string]any) (map[string]any, error) {
	id := str(args["id"])
	if id == "" {
		return nil, errors.New("id is required")
	}
	doc, err := srv.Beck.GetDocument(ctx, id, format(args))
	if err != nil {
		return nil, err
	}
	return map[string]any{"title": doc.Title, "body": doc.Body}, nil
}

func (srv *Server) tBeckGetLegislation(ctx context.Context, args map[string]any) (map[string]any, error) {
	abk, section := str(args["abbreviation"]), str(args["section"])
	if abk == "" || section == "" {
		return nil, errors.New("abbreviation and section are required")
	}
	doc, err := srv.Beck.GetLegislation(ctx, abk, section, format(args))
	if err != nil {
		return nil, err
	}
	return map[string]any{"title": doc.Title, "body": doc.Body}, nil
}

func (srv *Server) tBeckResolveCitation(ctx context.Context, args map[string]any) (map[string]any, error) {
	citation := str(args["citation"])
	if citation == "" {
		return nil, errors.New("citation is required")
	}
	vpath, err := srv.Beck.ResolveCitation(ctx, citation)
	if err != nil {
		return nil, err
	}
	return map[string]any{"vpath": vpath}, nil
}

func (srv *Server) tBeckGetSuggestions(ctx context.Context, args map[string]any) (map[string]any, error) {
	term := str(args["term"])
	if term == "" {
		return nil, errors.New("term is required")
	}
	suggestions, err := srv.Beck.GetSuggestions(ctx, term)
	if err != nil {
		return nil, err
	}
	return map[string]any{"suggestions": suggestions}, nil
}

func (srv *Server) tBeckGetContext(ctx context.Context, args map[string]any) (map[string]any, error) {
	id := str(args["id"])
	if id == "" {
		return nil, errors.New("id is required")
	}
	info, err := srv.Beck.GetContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"breadcrumbs": info.Breadcrumbs,
		"previous":    info.Previous,
		"next":        info.Next,
	}, nil
}

func (srv *Server) tBeckGetReferencedDocuments(ctx context.Context, args map[string]any) (map[string]any, error) {
	id := str(args["id"])
	if id == "" {
		return nil, errors.New("id is required")
	}
	refs, err := srv.Beck.GetReferencedDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, map[string]any{"text": r.Text, "vpath": r.VPath})
	}
	return map[string]any{"references": out}, nil
}

func (srv *Server) tGIIGetLegislation(ctx context.Context, args map[string]any) (map[string]any, error) {
	abk, section := str(args["abbreviation"]), str(args["section"])
	if abk == "" || section == "" {
		return nil, errors.New("abbreviation and section are required")
	}
	doc, err := srv.GII.GetLegislation(ctx, abk, section)
	if err != nil {
		return nil, err
	}
	return map[string]any{"title": doc.Title, "body": doc.Body}, nil
}

func (srv *Server) tCorpusIngest(_ context.Context, args map[string]any) (map[string]any, error) {
	rawDocs, ok := args["docs"].([]any)
	if !ok || len(rawDocs) == 0 {
		return nil, errors.New("docs is required (non-empty array)")
	}
	docs := make([]corpus.DocInput, 0, len(rawDocs))
	for _, v := range rawDocs {
		m, _ := v.(map[string]any)
		docs = append(docs, corpus.DocInput{
			VPath: str(m["vpath"]),
			Title: str(m["title"]),
			Text:  str(m["text"]),
		})
	}
	res, err := srv.Corpus.Ingest(str(args["session_id"]), docs)
	if err != nil {
		return nil, err
	}
	return map[string]any{"session_id": res.SessionID, "chunks": res.Chunks}, nil
}

func (srv *Server) tCorpusSearch(_ context.Context, args map[string]any) (map[string]any, error) {
	sid := str(args["session_id"])
	if sid == "" {
		return nil, errors.New("session_id is required")
	}
	q := str(args["q"])
	if q == "" {
		return nil, errors.New("q is required")
	}
	k := asInt(args["k"])
	if k < 1 || k > 50 {
		k = 10
	}
	hits, err := srv.Corpus.Search(sid, q, k)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(hits))
	for _, h := range hits {
		out = append(out, map[string]any{
			"doc_id": h.DocID, "vpath": h.VPath, "title": h.Title,
			"snippet": h.Snippet, "score": h.Score,
		})
	}
	return map[string]any{"hits": out}, nil
}

func format(args map[string]any) string {
	if f := str(args["format"]); f != "" {
		return f
	}
	return beck.FormatMarkdown
}
