// Package narrative defines the records that make up a curated narrative
// export bundle: the series hierarchy, the entities extracted from it, and
// the typed connections between events. Every record carries a curation UUID
// assigned by the upstream curation tool; all cross-references between
// records use these UUIDs, never database IDs.
package narrative

// Series is the root of the content hierarchy.
type Series struct {
	UUID        string   `yaml:"curation_uuid"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Seasons     []Season `yaml:"seasons"`
}

// Season groups episodes under a series.
type Season struct {
	UUID        string    `yaml:"curation_uuid"`
	Number      int       `yaml:"season_number"`
	Description string    `yaml:"description"`
	Episodes    []Episode `yaml:"episodes"`
}

// Episode is the unit every event belongs to.
type Episode struct {
	UUID         string `yaml:"curation_uuid"`
	Number       int    `yaml:"episode_number"`
	Title        string `yaml:"title"`
	Logline      string `yaml:"logline"`
	Summary      string `yaml:"high_level_summary"`
	DominantTone string `yaml:"dominant_tone"`
}

// Theme is a recurring idea events can be tagged with.
type Theme struct {
	UUID        string `yaml:"curation_uuid"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ConflictArc is a long-running tension spanning multiple events.
type ConflictArc struct {
	UUID        string `yaml:"curation_uuid"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	ArcType     string `yaml:"arc_type"`
}

// Location is a place events happen at. Locations may nest through
// ParentUUID (a room inside a building inside a district).
type Location struct {
	UUID          string `yaml:"curation_uuid"`
	CanonicalName string `yaml:"canonical_name"`
	Description   string `yaml:"description"`
	LocationType  string `yaml:"location_type"`
	ParentUUID    string `yaml:"parent_location_uuid"`
}

// Organization is a group characters can be affiliated with.
type Organization struct {
	UUID              string `yaml:"curation_uuid"`
	CanonicalName     string `yaml:"canonical_name"`
	Description       string `yaml:"description"`
	SphereOfInfluence string `yaml:"sphere_of_influence"`
}

// Object is a physical item of narrative significance, optionally owned by
// a character.
type Object struct {
	UUID          string `yaml:"curation_uuid"`
	CanonicalName string `yaml:"canonical_name"`
	Description   string `yaml:"description"`
	Purpose       string `yaml:"purpose"`
	Significance  string `yaml:"significance"`
	OwnerUUID     string `yaml:"potential_owner_uuid"`
}

// Character is a named participant in the story.
type Character struct {
	UUID             string   `yaml:"curation_uuid"`
	CanonicalName    string   `yaml:"canonical_name"`
	TitleRole        string   `yaml:"title_role"`
	Description      string   `yaml:"description"`
	CharacterType    string   `yaml:"character_type"`
	Traits           []string `yaml:"traits"`
	Aliases          []string `yaml:"aliases"`
	AppearanceCount  int      `yaml:"appearance_count"`
	OrganizationUUID string   `yaml:"affiliated_organization_uuid"`
}

// Participation describes what a single character did, felt, and wanted
// during one event. Participations are embedded in their event record.
type Participation struct {
	CharacterUUID  string   `yaml:"character_uuid"`
	EmotionalState string   `yaml:"emotional_state"`
	Goals          []string `yaml:"goals"`
	WhatHappened   string   `yaml:"what_happened"`
	ObservedStatus string   `yaml:"observed_status"`
	Beliefs        []string `yaml:"beliefs"`
	ObservedTraits []string `yaml:"observed_traits"`
	Importance     string   `yaml:"importance"`
}

// ObjectInvolvement describes how an object features in one event. Embedded
// in the event record like participations.
type ObjectInvolvement struct {
	ObjectUUID   string `yaml:"object_uuid"`
	Description  string `yaml:"description_of_involvement"`
	StatusBefore string `yaml:"status_before_event"`
	StatusAfter  string `yaml:"status_after_event"`
}

// LocationInvolvement carries the atmospheric and contextual detail of a
// location during one event, beyond the event's primary location reference.
type LocationInvolvement struct {
	LocationUUID         string   `yaml:"location_uuid"`
	Description          string   `yaml:"description_of_involvement"`
	ObservedAtmosphere   string   `yaml:"observed_atmosphere"`
	FunctionalRole       string   `yaml:"functional_role"`
	SymbolicSignificance string   `yaml:"symbolic_significance"`
	AccessRestrictions   string   `yaml:"access_restrictions"`
	EnvironmentalDetails []string `yaml:"key_environmental_details"`
}

// OrganizationInvolvement describes how an organization acts in one event.
type OrganizationInvolvement struct {
	OrganizationUUID     string   `yaml:"organization_uuid"`
	Description          string   `yaml:"description_of_involvement"`
	ActiveRepresentation string   `yaml:"active_representation"`
	PowerDynamics        string   `yaml:"power_dynamics"`
	OrganizationalGoals  []string `yaml:"organizational_goals"`
	InfluenceMechanisms  []string `yaml:"influence_mechanisms"`
	InstitutionalImpact  string   `yaml:"institutional_impact"`
	InternalDynamics     string   `yaml:"internal_dynamics"`
}

// Event is a discrete story beat inside an episode, ordered by scene and
// position within the scene.
type Event struct {
	UUID            string          `yaml:"curation_uuid"`
	Title           string          `yaml:"title"`
	Description     string          `yaml:"description"`
	SceneSequence   int             `yaml:"scene_sequence"`
	SequenceInScene int             `yaml:"sequence_in_scene"`
	KeyDialogue     []string        `yaml:"key_dialogue"`
	IsFlashback     bool            `yaml:"is_flashback"`
	LocationUUID    string          `yaml:"location_uuid"`
	ThemeUUIDs      []string        `yaml:"theme_uuids"`
	ArcUUIDs        []string        `yaml:"arc_uuids"`
	Participations  []Participation `yaml:"participations"`

	ObjectInvolvements       []ObjectInvolvement       `yaml:"object_involvements"`
	LocationInvolvements     []LocationInvolvement     `yaml:"location_involvements"`
	OrganizationInvolvements []OrganizationInvolvement `yaml:"organization_involvements"`
}

// Connection is a directed, typed edge between two events. Connections are
// first-class records: they carry their own curation UUID and are
// addressable on their own.
type Connection struct {
	UUID          string `yaml:"curation_uuid"`
	FromEventUUID string `yaml:"from_event_uuid"`
	ToEventUUID   string `yaml:"to_event_uuid"`
	Type          string `yaml:"connection_type"`
	Strength      string `yaml:"strength"`
	Description   string `yaml:"description"`
}
