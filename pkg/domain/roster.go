package domain

// Roster は実行開始時点のアセット一覧のスナップショットです。
type Roster []Asset

// FindByID は ID に一致するアセットを返します。
func (r Roster) FindByID(id string) (Asset, bool) {
	for _, a := range r {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// IDsForNames は名前のリストをアセットIDに変換します。
// 比較は大文字小文字を区別する完全一致で、一致しない名前は黙って捨てます。
// 同じIDは一度だけ返します。
func (r Roster) IDsForNames(names []string) []string {
	byName := make(map[string]string, len(r))
	for _, a := range r {
		if _, dup := byName[a.Name]; !dup {
			byName[a.Name] = a.ID
		}
	}

	ids := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Names はロスター内の名前を順に返します。
func (r Roster) Names() []string {
	names := make([]string, 0, len(r))
	for _, a := range r {
		names = append(names, a.Name)
	}
	return names
}

// Snapshot はロスターのコピーを返します。実行中の変更を観測しないために使います。
func (r Roster) Snapshot() Roster {
	out := make(Roster, len(r))
	copy(out, r)
	return out
}
