// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"log/slog"
	"sync"
	"time"

	"github.com/partyline/partyline/lib/clock"
	"github.com/partyline/partyline/rest"
)

// Config is a party's session configuration. It travels alongside the
// meta: privacy flows into both the config object and the privacy
// meta key.
type Config struct {
	Privacy          Privacy
	MaxSize          int
	Joinability      string
	Discoverability  string
	SubType          string
	InviteTTL        time.Duration
	JoinConfirmation bool
}

// Options wires a Party's dependencies when materializing from a
// server response.
type Options struct {
	// SelfID is the local user's account ID.
	SelfID string
	// Clock drives patch retry backoff. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// PartyWriter performs party-level meta patches.
	PartyWriter PatchFunc
	// SelfWriter performs member-level meta patches for the local
	// member.
	SelfWriter PatchFunc
	// MaxPatchAttempts bounds stale-revision retries. Zero means
	// DefaultMaxPatchAttempts.
	MaxPatchAttempts int
}

// Party is the in-memory model of one session: identifier,
// configuration, revisioned meta, and the ordered member roster.
// Exactly one member holds leadership at any time.
//
// A Party is replaced, never mutated across a leave/rejoin boundary:
// when the local user leaves or is removed, the client discards the
// whole object and synthesizes a fresh one. In-flight references held
// by callbacks go stale harmlessly and are checked by identity.
type Party struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	meta      *Revisioned
	config    Config
	members   []*Member
	byID      map[string]*Member
	leaderID  string
	opts      Options
}

// NewParty materializes a Party from a server response. Members are
// added in response order, which the party service keeps in join
// order.
func NewParty(data *rest.PartyData, opts Options) *Party {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p := &Party{
		id:        data.ID,
		createdAt: data.CreatedAt,
		byID:      make(map[string]*Member),
		opts:      opts,
	}
	p.meta = NewRevisioned(RevisionedConfig{
		Meta:        MetaFromWire(data.Meta),
		Revision:    data.Revision,
		Writer:      opts.PartyWriter,
		Clock:       opts.Clock,
		Logger:      opts.Logger,
		MaxAttempts: opts.MaxPatchAttempts,
	})
	p.config = configFromData(data.Config, p.meta)

	for _, memberData := range data.Members {
		_, _ = p.AddMember(memberData)
	}
	return p
}

// configFromData builds the session config from the server's config
// object plus the privacy meta key.
func configFromData(data rest.PartyConfigData, meta *Revisioned) Config {
	config := Config{
		MaxSize:          data.MaxSize,
		Joinability:      data.Joinability,
		Discoverability:  data.Discoverability,
		SubType:          data.SubType,
		InviteTTL:        time.Duration(data.InviteTTL) * time.Second,
		JoinConfirmation: data.JoinConfirmation,
	}

	var privacy struct {
		PrivacySettings PrivacySettings `json:"PrivacySettings"`
	}
	if err := meta.GetJSON(keyPrivacySettings, &privacy); err == nil {
		config.Privacy = privacyFromSettings(privacy.PrivacySettings)
	}
	return config
}

// ID returns the party's session identifier.
func (p *Party) ID() string { return p.id }

// CreatedAt returns when the party was created.
func (p *Party) CreatedAt() time.Time { return p.createdAt }

// Meta returns the party's revisioned attribute store.
func (p *Party) Meta() *Revisioned { return p.meta }

// Config returns a copy of the session configuration.
func (p *Party) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// setConfig replaces the session configuration. Used by the
// reconciler when a party update carries config changes.
func (p *Party) setConfig(config Config) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = config
}

// Members returns a copy of the roster in join order. Mutating the
// returned slice does not affect the party.
func (p *Party) Members() []*Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	members := make([]*Member, len(p.members))
	copy(members, p.members)
	return members
}

// Member returns the member with the given account ID, or nil.
func (p *Party) Member(id string) *Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byID[id]
}

// Me returns the local user's member entry. During the window between
// joining and the server materializing the membership, the entry is
// absent and Me returns ErrSelfNotMaterialized.
func (p *Party) Me() (*Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	member, ok := p.byID[p.opts.SelfID]
	if !ok {
		return nil, ErrSelfNotMaterialized
	}
	return member, nil
}

// Size returns the current member count.
func (p *Party) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members)
}

// IsFull reports whether the roster has reached the configured
// maximum size.
func (p *Party) IsFull() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.members) >= p.config.MaxSize
}

// Leader returns the current leader, or nil when leadership is
// momentarily unassigned (the server always reassigns it).
func (p *Party) Leader() *Member {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byID[p.leaderID]
}

// LeaderID returns the current leader's account ID.
func (p *Party) LeaderID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leaderID
}

// SelfID returns the local user's account ID.
func (p *Party) SelfID() string { return p.opts.SelfID }

// IsSelfLeader reports whether the local user leads the party.
func (p *Party) IsSelfLeader() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leaderID == p.opts.SelfID
}

// AddMember appends a member to the roster. Duplicate account IDs are
// rejected with ErrDuplicateMember. A member carrying the leader role
// takes leadership.
func (p *Party) AddMember(data rest.MemberData) (*Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byID[data.AccountID]; exists {
		return nil, ErrDuplicateMember
	}

	member := p.newMember(data)
	p.members = append(p.members, member)
	p.byID[member.id] = member

	if data.Role == roleLeader {
		p.leaderID = member.id
	}
	return member, nil
}

// newMember builds a Member from server data. Must be called with
// p.mu held.
func (p *Party) newMember(data rest.MemberData) *Member {
	meta := MetaFromWire(data.Meta)

	displayName, _ := meta.GetRaw(keyDisplayName)
	platform, _ := meta.GetRaw(keyPlatform)

	var writer PatchFunc
	if data.AccountID == p.opts.SelfID {
		writer = p.opts.SelfWriter
	}

	member := &Member{
		id:          data.AccountID,
		displayName: displayName,
		platform:    platform,
		joinedAt:    data.JoinedAt,
		party:       p,
	}
	member.meta = NewRevisioned(RevisionedConfig{
		Meta:        meta,
		Revision:    data.Revision,
		Writer:      writer,
		Clock:       p.opts.Clock,
		Logger:      p.opts.Logger,
		MaxAttempts: p.opts.MaxPatchAttempts,
	})
	member.setConnectionState(StateActive)
	return member
}

// RemoveMember removes a member from the roster and returns it, or
// nil when the member was already gone (a stray leave for an expired
// member is a no-op, not an error).
func (p *Party) RemoveMember(id string) *Member {
	p.mu.Lock()
	defer p.mu.Unlock()

	member, ok := p.byID[id]
	if !ok {
		return nil
	}
	delete(p.byID, id)
	for i, candidate := range p.members {
		if candidate.id == id {
			p.members = append(p.members[:i], p.members[i+1:]...)
			break
		}
	}
	if p.leaderID == id {
		p.leaderID = ""
	}
	return member
}

// SetLeader transfers leadership, enforcing the one-leader invariant:
// the previous leader is demoted implicitly, and promoting the current
// leader again reports no change. Returns the previous leader (nil if
// leadership was unassigned) and whether anything changed.
func (p *Party) SetLeader(id string) (previous *Member, changed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byID[id]; !ok {
		return nil, false
	}
	if p.leaderID == id {
		return p.byID[id], false
	}
	previous = p.byID[p.leaderID]
	p.leaderID = id
	return previous, true
}

// playlistData is the vendor's playlist envelope.
type playlistData struct {
	PlaylistData struct {
		PlaylistName  string `json:"playlistName"`
		TournamentID  string `json:"tournamentId"`
		EventWindowID string `json:"eventWindowId"`
		RegionID      string `json:"regionId"`
	} `json:"PlaylistData"`
}

// Playlist identifies the selected playlist, including tournament
// fields when one is selected.
type Playlist struct {
	Name          string
	TournamentID  string
	EventWindowID string
	RegionID      string
}

// Playlist returns the party's selected playlist.
func (p *Party) Playlist() Playlist {
	var data playlistData
	_ = p.meta.GetJSON(keyPlaylistData, &data)
	return Playlist{
		Name:          data.PlaylistData.PlaylistName,
		TournamentID:  data.PlaylistData.TournamentID,
		EventWindowID: data.PlaylistData.EventWindowID,
		RegionID:      data.PlaylistData.RegionID,
	}
}

// CustomKey returns the party's custom matchmaking key, or "".
func (p *Party) CustomKey() string {
	key, _ := p.meta.Get(keyCustomMatchKey).(string)
	return key
}

// SquadFill reports whether the party requests fill members in
// matchmaking.
func (p *Party) SquadFill() bool {
	fill, _ := p.meta.Get(keySquadFill).(bool)
	return fill
}

// SquadAssignment pins a member to a squad position. Position order
// follows the roster's join order, with the local member first,
// matching the vendor's position priorities.
type SquadAssignment struct {
	MemberID string `json:"memberId"`
	Index    int    `json:"absoluteMemberIdx"`
}

// SquadAssignments computes the position list for the current roster.
// The leader publishes this into the party meta whenever membership
// changes.
func (p *Party) SquadAssignments() []SquadAssignment {
	p.mu.Lock()
	defer p.mu.Unlock()

	assignments := make([]SquadAssignment, 0, len(p.members))
	index := 0

	// The local member always takes position 0.
	if self, ok := p.byID[p.opts.SelfID]; ok {
		assignments = append(assignments, SquadAssignment{MemberID: self.id, Index: index})
		index++
	}
	for _, member := range p.members {
		if member.id == p.opts.SelfID {
			continue
		}
		assignments = append(assignments, SquadAssignment{MemberID: member.id, Index: index})
		index++
	}
	return assignments
}
