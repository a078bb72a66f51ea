//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"pharmarag/internal/adapter/cache"
	"pharmarag/internal/adapter/chunker"
	"pharmarag/internal/adapter/embedding"
	"pharmarag/internal/adapter/memstore"
	"pharmarag/internal/usecase"
)

// In-browser demo: leaflets are chunked and held in memory, retrieval uses
// the mock embedder. No answer generation happens client-side.

const mockDimension = 64

var (
	store *memstore.MemoryStore
	chk   *chunker.MarkdownChunker
	docs  *usecase.DocumentStore
)

func reset() {
	embedder := embedding.NewMockEmbedder(mockDimension)
	store = memstore.NewMemoryStore(embedder)
	chk = chunker.NewMarkdownChunker(0)
	docs = usecase.NewDocumentStore(store, nil, cache.NewKeyBuilder(store.Identity()), nil, nil)
}

func init() {
	reset()
}

func main() {
	c := make(chan struct{})

	js.Global().Set("pharmaIngest", js.FuncOf(ingestContent))
	js.Global().Set("pharmaSearch", js.FuncOf(searchContent))
	js.Global().Set("pharmaDoc", js.FuncOf(getDocument))
	js.Global().Set("pharmaNames", js.FuncOf(listNames))
	js.Global().Set("pharmaClear", js.FuncOf(clearStore))
	js.Global().Set("pharmaStats", js.FuncOf(getStats))

	<-c
}

func ingestContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: pharmaIngest(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()

	chunks, err := chk.Chunk(filename, content)
	if err != nil {
		return makeError("chunking failed: " + err.Error())
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	embedder := embedding.NewMockEmbedder(mockDimension)
	vectors, err := embedder.Embed(texts)
	if err != nil {
		return makeError("embedding failed: " + err.Error())
	}

	if err := store.PutChunks(chunks, vectors); err != nil {
		return makeError("storing failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"chunks":   len(chunks),
		"filename": filename,
	})
}

func searchContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: pharmaSearch(query, [topK])")
	}

	query := args[0].String()
	topK := 3
	if len(args) > 1 {
		topK = args[1].Int()
	}

	passages, err := store.SimilaritySearch(query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(passages))
	for _, p := range passages {
		output = append(output, map[string]interface{}{
			"name":    p.Chunk.Name,
			"section": p.Chunk.Section,
			"score":   p.Score,
			"text":    p.Chunk.Content,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func getDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: pharmaDoc(name)")
	}

	doc, found, err := docs.GetByName(args[0].String(), false)
	if err != nil {
		return makeError("lookup failed: " + err.Error())
	}
	if !found {
		return makeError("no document found: " + args[0].String())
	}

	return makeResult(map[string]interface{}{
		"name":     doc.Name,
		"filename": doc.Filename,
		"content":  doc.Content,
	})
}

func listNames(this js.Value, args []js.Value) interface{} {
	names, err := store.DistinctNames()
	if err != nil {
		return makeError("names failed: " + err.Error())
	}
	return makeResult(map[string]interface{}{
		"names": names,
		"count": len(names),
	})
}

func clearStore(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	count, _ := store.Count()
	names, _ := store.DistinctNames()
	return makeResult(map[string]interface{}{
		"totalChunks": count,
		"totalNames":  len(names),
		"names":       names,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
