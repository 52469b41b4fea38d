package floorplan

import (
	"strings"
)

// RoomResolver maps free-form room labels from a schedule to space ids.
type RoomResolver struct {
	// UpstairsProxyName names the space that stands in for every second-floor room
	UpstairsProxyName string
}

func NewRoomResolver(upstairsProxyName string) RoomResolver {
	return RoomResolver{UpstairsProxyName: upstairsProxyName}
}

// resolve tries an exact name match, then treats labels whose room number has
// at least three digits and starts with '2' as upstairs. Anything else is nil.
// The caller must hold the map lock.
func (r RoomResolver) resolve(m *Map, label string) *int {
	if space, ok := m.spaceByName(label); ok {
		return &space.ID
	}

	if r.UpstairsProxyName == "" || !isUpstairsRoom(label) {
		return nil
	}

	if proxy, ok := m.spaceByName(r.UpstairsProxyName); ok {
		return &proxy.ID
	}
	return nil
}

// Resolve locks m for reading and resolves a single label
func (r RoomResolver) Resolve(m *Map, label string) *int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return r.resolve(m, label)
}

func isUpstairsRoom(label string) bool {
	digits := roomNumber(strings.TrimPrefix(strings.TrimSpace(label), "Room "))
	return len(digits) >= 3 && digits[0] == '2'
}

// roomNumber returns the first contiguous run of digits in s
func roomNumber(s string) string {
	start := strings.IndexFunc(s, isASCIIDigit)
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && isASCIIDigit(rune(s[end])) {
		end++
	}
	return s[start:end]
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
