package acceptance

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"sync"
)

// FakeStore is an in-memory stand-in for the REST flashcard store. Cards are
// kept as the raw JSON objects clients sent so tests can assert on the wire
// shape.
type FakeStore struct {
	mu        sync.Mutex
	nextID    int
	sets      map[int]map[string]any
	cards     map[int]map[string]any
	order     []int
	materials map[string]materialFile
	requests  int
	mux       *http.ServeMux
}

type materialFile struct {
	contentType string
	data        []byte
}

func NewFakeStore() *FakeStore {
	s := &FakeStore{
		sets:      make(map[int]map[string]any),
		cards:     make(map[int]map[string]any),
		materials: make(map[string]materialFile),
		mux:       http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/flashcard-sets", s.createSet)
	s.mux.HandleFunc("GET /api/flashcards", s.listCards)
	s.mux.HandleFunc("POST /api/flashcards", s.createCard)
	s.mux.HandleFunc("PUT /api/flashcards/{id}", s.updateCard)
	s.mux.HandleFunc("DELETE /api/flashcards/{id}", s.deleteCard)
	s.mux.HandleFunc("GET /api/materials/file/{name}", s.materialFile)
	return s
}

func (s *FakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
	s.mux.ServeHTTP(w, r)
}

// AddMaterial makes a file downloadable under /api/materials/file/<name>.
func (s *FakeStore) AddMaterial(name, contentType string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[name] = materialFile{contentType: contentType, data: data}
}

// Cards returns copies of every stored card in creation order.
func (s *FakeStore) Cards() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, maps.Clone(s.cards[id]))
	}
	return out
}

// Set returns the stored flashcard set with the given id.
func (s *FakeStore) Set(id string) (map[string]any, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[n]
	return maps.Clone(set), ok
}

// Requests is the number of requests served so far.
func (s *FakeStore) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *FakeStore) createSet(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	if name, _ := body["name"].(string); name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextID++
	body["id"] = s.nextID
	s.sets[s.nextID] = body
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, body)
}

func (s *FakeStore) listCards(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("flashcardSetId")

	s.mu.Lock()
	out := []map[string]any{}
	for _, id := range s.order {
		if c := s.cards[id]; fmt.Sprint(c["flashcardSetId"]) == setID {
			out = append(out, maps.Clone(c))
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *FakeStore) createCard(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}
	front, _ := body["front"].(string)
	back, _ := body["back"].(string)
	if front == "" || back == "" {
		http.Error(w, "front and back are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	setID, err := strconv.Atoi(fmt.Sprint(body["flashcardSetId"]))
	if _, exists := s.sets[setID]; err != nil || !exists {
		s.mu.Unlock()
		http.Error(w, "unknown flashcard set", http.StatusBadRequest)
		return
	}
	s.nextID++
	body["id"] = s.nextID
	s.cards[s.nextID] = body
	s.order = append(s.order, s.nextID)
	resp := maps.Clone(body)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, resp)
}

func (s *FakeStore) updateCard(w http.ResponseWriter, r *http.Request) {
	body, ok := decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	card, exists := s.card(r.PathValue("id"))
	if exists {
		delete(body, "id")
		maps.Copy(card, body)
		card = maps.Clone(card)
	}
	s.mu.Unlock()

	if !exists {
		http.Error(w, "flashcard not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *FakeStore) deleteCard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := strconv.Atoi(r.PathValue("id"))
	if _, exists := s.cards[id]; err != nil || !exists {
		http.Error(w, "flashcard not found", http.StatusNotFound)
		return
	}
	delete(s.cards, id)
	for i, cid := range s.order {
		if cid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *FakeStore) materialFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, ok := s.materials[r.PathValue("name")]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	_, _ = w.Write(f.data)
}

// card must be called with s.mu held.
func (s *FakeStore) card(id string) (map[string]any, bool) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, false
	}
	c, ok := s.cards[n]
	return c, ok
}

func decode(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
