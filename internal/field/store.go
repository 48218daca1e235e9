package field

// Store holds the state of every field. It is a value type: assigning a
// Store copies it, which is how the randomizer takes a consistent snapshot.
type Store struct {
	fields [numKeys]Field
}

// Get returns the field for key, or the zero Field for an unknown key
func (s *Store) Get(key Key) Field {
	if !key.Valid() {
		return Field{}
	}
	return s.fields[key]
}

// Put overwrites a field without applying the preset coupling rule.
// The randomizer uses it to commit values it has already made consistent.
func (s *Store) Put(key Key, f Field) {
	if !key.Valid() {
		return
	}
	s.fields[key] = f
}

// SetSelected records a manual selection. Unknown keys are ignored and
// reported as false. Changing the preset count clears the unlocked preset
// slots that fall out of range; slot 0 is never cleared by this rule.
func (s *Store) SetSelected(key Key, value string) bool {
	if !key.Valid() {
		return false
	}
	s.fields[key].Selected = value

	if key == PresetCount {
		n := ParseCount(value)
		if n < 2 && !s.fields[Preset1].Locked {
			s.fields[Preset1].Selected = ""
		}
		if n < 3 && !s.fields[Preset2].Locked {
			s.fields[Preset2].Selected = ""
		}
	}
	return true
}

// ToggleLock flips the lock of a single field
func (s *Store) ToggleLock(key Key) bool {
	if !key.Valid() {
		return false
	}
	s.fields[key].Locked = !s.fields[key].Locked
	return true
}

// Reset unlocks and clears every field
func (s *Store) Reset() {
	s.fields = [numKeys]Field{}
}

// PresetCount returns the current count selection, clamped to [0, MaxPresets]
func (s *Store) PresetCount() int {
	return ParseCount(s.fields[PresetCount].Selected)
}

// VisibleKeys returns keys in display order, omitting preset slots whose
// index is not below the current count. A locked out-of-range slot is hidden
// here but keeps its stored value.
func (s *Store) VisibleKeys() []Key {
	count := s.PresetCount()
	keys := make([]Key, 0, numKeys)
	for _, k := range Keys() {
		if idx := k.PresetIndex(); idx >= 0 && idx >= count {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

// Map returns the fields keyed by wire name
func (s *Store) Map() map[string]Field {
	out := make(map[string]Field, numKeys)
	for k, f := range s.fields {
		out[Key(k).String()] = f
	}
	return out
}
