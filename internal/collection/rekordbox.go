/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package collection

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const locationPrefix = "file://localhost"

// Rating values recognized by Rekordbox mapped to the 0-5 scale.
var ratingFromRekordbox = map[string]int{
	"0": 0, "51": 1, "102": 2, "153": 3, "204": 4, "255": 5,
}

var ratingToRekordbox = map[int]string{
	0: "0", 1: "51", 2: "102", 3: "153", 4: "204", 5: "255",
}

var dateAddedFormats = []string{"2006-01-02", "2006-1-2", "2006-1-02", "2006-01-2"}

// Options controls how track attributes are interpreted during
// deserialization.
type Options struct {
	TagMarkerOpen  string
	TagMarkerClose string
	GenreDelimiter string
}

// RekordboxCollection reads and writes the XML format exported by Rekordbox.
type RekordboxCollection struct {
	version string
	product xmlProduct
	tracks  []*Track
	extras  map[string]trackExtras
	root    *Playlist
	opts    Options
	logger  zerolog.Logger
}

// trackExtras carries attributes that round-trip through serialization but
// play no part in playlist building.
type trackExtras struct {
	Composer     string
	Album        string
	Grouping     string
	Kind         string
	Size         string
	TotalTime    string
	DiscNumber   string
	TrackNumber  string
	BitRate      string
	SampleRate   string
	PlayCount    string
	Remixer      string
	Mix          string
	RawBPM       string
	RawDateAdded string
	RawLocation  string
	RawYear      string
}

type xmlDocument struct {
	XMLName    xml.Name      `xml:"DJ_PLAYLISTS"`
	Version    string        `xml:"Version,attr"`
	Product    xmlProduct    `xml:"PRODUCT"`
	Collection xmlCollection `xml:"COLLECTION"`
	Playlists  xmlPlaylists  `xml:"PLAYLISTS"`
}

type xmlProduct struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
	Company string `xml:"Company,attr"`
}

type xmlCollection struct {
	Entries string     `xml:"Entries,attr"`
	Tracks  []xmlTrack `xml:"TRACK"`
}

type xmlTrack struct {
	TrackID     string `xml:"TrackID,attr"`
	Name        string `xml:"Name,attr"`
	Artist      string `xml:"Artist,attr"`
	Composer    string `xml:"Composer,attr,omitempty"`
	Album       string `xml:"Album,attr,omitempty"`
	Grouping    string `xml:"Grouping,attr,omitempty"`
	Genre       string `xml:"Genre,attr"`
	Kind        string `xml:"Kind,attr,omitempty"`
	Size        string `xml:"Size,attr,omitempty"`
	TotalTime   string `xml:"TotalTime,attr,omitempty"`
	DiscNumber  string `xml:"DiscNumber,attr,omitempty"`
	TrackNumber string `xml:"TrackNumber,attr,omitempty"`
	Year        string `xml:"Year,attr,omitempty"`
	AverageBpm  string `xml:"AverageBpm,attr"`
	DateAdded   string `xml:"DateAdded,attr"`
	BitRate     string `xml:"BitRate,attr,omitempty"`
	SampleRate  string `xml:"SampleRate,attr,omitempty"`
	Comments    string `xml:"Comments,attr"`
	PlayCount   string `xml:"PlayCount,attr,omitempty"`
	Rating      string `xml:"Rating,attr"`
	Location    string `xml:"Location,attr"`
	Remixer     string `xml:"Remixer,attr,omitempty"`
	Tonality    string `xml:"Tonality,attr,omitempty"`
	Label       string `xml:"Label,attr,omitempty"`
	Mix         string `xml:"Mix,attr,omitempty"`
}

type xmlPlaylists struct {
	Nodes []xmlNode `xml:"NODE"`
}

type xmlNode struct {
	Type    string        `xml:"Type,attr"`
	Name    string        `xml:"Name,attr"`
	Count   string        `xml:"Count,attr,omitempty"`
	KeyType string        `xml:"KeyType,attr,omitempty"`
	Entries string        `xml:"Entries,attr,omitempty"`
	Nodes   []xmlNode     `xml:"NODE"`
	Tracks  []xmlNodeItem `xml:"TRACK"`
}

type xmlNodeItem struct {
	Key string `xml:"Key,attr"`
}

// LoadRekordbox deserializes a Rekordbox XML export from path.
func LoadRekordbox(path string, opts Options, logger zerolog.Logger) (*RekordboxCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DeserializeError{Path: path, Err: err}
	}
	return ParseRekordbox(data, path, opts, logger)
}

// ParseRekordbox deserializes a Rekordbox XML document from raw bytes.
func ParseRekordbox(data []byte, path string, opts Options, logger zerolog.Logger) (*RekordboxCollection, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, &DeserializeError{Path: path, Err: err}
	}

	col := &RekordboxCollection{
		version: doc.Version,
		product: doc.Product,
		extras:  make(map[string]trackExtras, len(doc.Collection.Tracks)),
		opts:    opts,
		logger:  logger,
	}

	for i := range doc.Collection.Tracks {
		track, extras, err := col.parseTrack(&doc.Collection.Tracks[i])
		if err != nil {
			return nil, &DeserializeError{Path: path, Err: err}
		}
		col.tracks = append(col.tracks, track)
		col.extras[track.ID] = extras
	}
	sort.Slice(col.tracks, func(i, j int) bool { return col.tracks[i].ID < col.tracks[j].ID })

	// Rekordbox exports a single ROOT folder node; keep it as the tree root
	// so appended playlists land inside it.
	if len(doc.Playlists.Nodes) == 1 && doc.Playlists.Nodes[0].Type == "0" {
		col.root = parseNode(&doc.Playlists.Nodes[0])
	} else {
		root := NewFolder("ROOT")
		for i := range doc.Playlists.Nodes {
			root.AddChild(parseNode(&doc.Playlists.Nodes[i]))
		}
		col.root = root
	}

	logger.Debug().Int("tracks", len(col.tracks)).Msg("collection deserialized")
	return col, nil
}

func (c *RekordboxCollection) parseTrack(raw *xmlTrack) (*Track, trackExtras, error) {
	if raw.TrackID == "" {
		return nil, trackExtras{}, fmt.Errorf("track %q has no TrackID", raw.Name)
	}

	track := &Track{
		ID:        raw.TrackID,
		Name:      raw.Name,
		GenreTags: SplitGenreField(raw.Genre, c.opts.GenreDelimiter),
		OtherTags: ParseCommentTags(raw.Comments, c.opts.TagMarkerOpen, c.opts.TagMarkerClose),
		Label:     raw.Label,
		Key:       raw.Tonality,
		Comment:   raw.Comments,
	}

	if raw.Artist != "" {
		for _, artist := range strings.Split(raw.Artist, ",") {
			if artist = strings.TrimSpace(artist); artist != "" {
				track.Artists = append(track.Artists, artist)
			}
		}
	}

	if raw.AverageBpm != "" {
		bpm, err := strconv.ParseFloat(raw.AverageBpm, 64)
		if err != nil {
			return nil, trackExtras{}, fmt.Errorf("track %s: bad AverageBpm %q", raw.TrackID, raw.AverageBpm)
		}
		track.BPM = bpm
	}

	if raw.Rating != "" {
		rating, ok := ratingFromRekordbox[raw.Rating]
		if !ok {
			return nil, trackExtras{}, fmt.Errorf("track %s: bad Rating %q", raw.TrackID, raw.Rating)
		}
		track.Rating = rating
	}

	if raw.Year != "" {
		year, err := strconv.Atoi(raw.Year)
		if err != nil {
			return nil, trackExtras{}, fmt.Errorf("track %s: bad Year %q", raw.TrackID, raw.Year)
		}
		track.Year = year
	}

	if raw.DateAdded != "" {
		added, err := parseDateAdded(raw.DateAdded)
		if err != nil {
			return nil, trackExtras{}, fmt.Errorf("track %s: %w", raw.TrackID, err)
		}
		track.DateAdded = added
	}

	if raw.Location != "" {
		unescaped, err := url.PathUnescape(raw.Location)
		if err != nil {
			unescaped = raw.Location
		}
		track.Location = strings.TrimPrefix(unescaped, locationPrefix)
	}

	extras := trackExtras{
		Composer:     raw.Composer,
		Album:        raw.Album,
		Grouping:     raw.Grouping,
		Kind:         raw.Kind,
		Size:         raw.Size,
		TotalTime:    raw.TotalTime,
		DiscNumber:   raw.DiscNumber,
		TrackNumber:  raw.TrackNumber,
		BitRate:      raw.BitRate,
		SampleRate:   raw.SampleRate,
		PlayCount:    raw.PlayCount,
		Remixer:      raw.Remixer,
		Mix:          raw.Mix,
		RawBPM:       raw.AverageBpm,
		RawDateAdded: raw.DateAdded,
		RawLocation:  raw.Location,
		RawYear:      raw.Year,
	}
	return track, extras, nil
}

func parseDateAdded(value string) (time.Time, error) {
	for _, format := range dateAddedFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad DateAdded %q", value)
}

func parseNode(raw *xmlNode) *Playlist {
	if raw.Type == "0" {
		folder := NewFolder(raw.Name)
		for i := range raw.Nodes {
			folder.AddChild(parseNode(&raw.Nodes[i]))
		}
		return folder
	}
	ids := make([]string, 0, len(raw.Tracks))
	for _, item := range raw.Tracks {
		ids = append(ids, item.Key)
	}
	return NewLeaf(raw.Name, ids)
}

// Tracks returns all tracks ordered ascending by ID.
func (c *RekordboxCollection) Tracks() []*Track { return c.tracks }

// Playlists returns the root folder of the existing playlist tree.
func (c *RekordboxCollection) Playlists() *Playlist { return c.root }

// AppendPlaylist adds a playlist tree under the collection root.
func (c *RekordboxCollection) AppendPlaylist(p *Playlist) {
	if p != nil {
		c.root.AddChild(p)
	}
}

// Serialize writes the collection back out as Rekordbox XML.
func (c *RekordboxCollection) Serialize(path string) error {
	doc := xmlDocument{
		Version: c.version,
		Product: c.product,
	}
	if doc.Version == "" {
		doc.Version = "1.0.0"
	}
	if doc.Product.Name == "" {
		doc.Product = xmlProduct{Name: "rekordbox", Version: "6.0.0", Company: "AlphaTheta"}
	}

	doc.Collection.Entries = strconv.Itoa(len(c.tracks))
	for _, track := range c.tracks {
		doc.Collection.Tracks = append(doc.Collection.Tracks, c.serializeTrack(track))
	}

	doc.Playlists.Nodes = []xmlNode{serializeNode(c.root)}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write collection: %w", err)
	}
	return nil
}

func (c *RekordboxCollection) serializeTrack(track *Track) xmlTrack {
	extras := c.extras[track.ID]

	location := extras.RawLocation
	decoded := ""
	if location != "" {
		if unescaped, err := url.PathUnescape(location); err == nil {
			decoded = strings.TrimPrefix(unescaped, locationPrefix)
		}
	}
	if location == "" || decoded != track.Location {
		// The location was assigned in-process; re-encode it.
		escaped := strings.ReplaceAll(url.PathEscape(track.Location), "%2F", "/")
		location = locationPrefix + escaped
	}

	bpm := extras.RawBPM
	if bpm == "" && track.BPM != 0 {
		bpm = fmt.Sprintf("%.2f", track.BPM)
	}

	year := extras.RawYear
	if year == "" && track.Year != 0 {
		year = strconv.Itoa(track.Year)
	}

	dateAdded := extras.RawDateAdded
	if dateAdded == "" && !track.DateAdded.IsZero() {
		dateAdded = track.DateAdded.Format("2006-01-02")
	}

	return xmlTrack{
		TrackID:     track.ID,
		Name:        track.Name,
		Artist:      strings.Join(track.Artists, ", "),
		Composer:    extras.Composer,
		Album:       extras.Album,
		Grouping:    extras.Grouping,
		Genre:       strings.Join(track.GenreTags, " / "),
		Kind:        extras.Kind,
		Size:        extras.Size,
		TotalTime:   extras.TotalTime,
		DiscNumber:  extras.DiscNumber,
		TrackNumber: extras.TrackNumber,
		Year:        year,
		AverageBpm:  bpm,
		DateAdded:   dateAdded,
		BitRate:     extras.BitRate,
		SampleRate:  extras.SampleRate,
		Comments:    track.Comment,
		PlayCount:   extras.PlayCount,
		Rating:      ratingToRekordbox[track.Rating],
		Location:    location,
		Remixer:     extras.Remixer,
		Tonality:    track.Key,
		Label:       track.Label,
		Mix:         extras.Mix,
	}
}

func serializeNode(p *Playlist) xmlNode {
	if p.IsFolder() {
		node := xmlNode{Type: "0", Name: p.Name(), Count: strconv.Itoa(len(p.Children()))}
		for _, child := range p.Children() {
			node.Nodes = append(node.Nodes, serializeNode(child))
		}
		return node
	}
	node := xmlNode{
		Type:    "1",
		Name:    p.Name(),
		KeyType: "0",
		Entries: strconv.Itoa(len(p.TrackIDs())),
	}
	for _, id := range p.TrackIDs() {
		node.Tracks = append(node.Tracks, xmlNodeItem{Key: id})
	}
	return node
}
