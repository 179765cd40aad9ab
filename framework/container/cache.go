package container

import "sort"

// instanceCache holds shared instances keyed by canonical identifier for the
// lifetime of the container. Callers hold the container lock.
type instanceCache struct {
	items map[string]any

	// keys stored with set, i.e. values registered through Instance
	pinned map[string]bool
}

func newInstanceCache() *instanceCache {
	return &instanceCache{items: make(map[string]any), pinned: make(map[string]bool)}
}

func (ic *instanceCache) get(key string) (any, bool) {
	v, ok := ic.items[key]
	return v, ok
}

func (ic *instanceCache) has(key string) bool {
	_, ok := ic.items[key]
	return ok
}

// put stores v unless key is already cached, and returns the cached value.
// Concurrent resolutions of one singleton therefore agree on one instance.
func (ic *instanceCache) put(key string, v any) any {
	if existing, ok := ic.items[key]; ok {
		return existing
	}
	ic.items[key] = v
	return v
}

// set stores v, replacing any previous value, and pins key.
func (ic *instanceCache) set(key string, v any) {
	ic.items[key] = v
	ic.pinned[key] = true
}

// isPinned reports whether key holds a value registered through Instance.
func (ic *instanceCache) isPinned(key string) bool {
	return ic.pinned[key]
}

func (ic *instanceCache) keys() []string {
	out := make([]string, 0, len(ic.items))
	for k := range ic.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
