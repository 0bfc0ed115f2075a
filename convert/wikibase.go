package convert

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/kgevolve/wikidated/datamodel"
	"github.com/kgevolve/wikidated/rdf"
	"github.com/kgevolve/wikidated/vocabulary/wikidata"
)

// Content models the converter can serialize.
const (
	ModelItem     = "wikibase-item"
	ModelProperty = "wikibase-property"
)

// Conversion failure reasons, kept stable for tallying.
const (
	ReasonNoText           = "revision has no text"
	ReasonMalformedJSON    = "entity JSON could not be deserialized"
	ReasonUnsupportedModel = "content model is not RDF-serializable"
)

// Wikibase converts Wikibase entity JSON documents into prefixed triple
// sets. Labels, descriptions, and aliases become term triples; statements
// become both truthy direct claims and reified statement nodes; sitelinks
// and redirects are represented the way the query service represents them.
// Terms are built from the vocabulary IRIs and abbreviated through the
// prefixer, so output matches what prefixing raw N-Triples would produce.
//
// Some-value snaks become blank nodes. Their identifiers are generated per
// converter instance and are not stable across runs, which is exactly why
// triple comparison collapses blank-node objects.
type Wikibase struct {
	prefixer *wikidata.Prefixer
	blankSeq atomic.Uint64
	closed   bool
}

// NewWikibase builds a converter over the standard Wikibase prefix table.
func NewWikibase() *Wikibase {
	return &Wikibase{prefixer: wikidata.NewPrefixer()}
}

// Close releases the converter. Further Convert calls fail.
func (c *Wikibase) Close() error {
	c.closed = true
	return nil
}

type wikibaseDocument struct {
	ID           string                         `json:"id"`
	Entity       string                         `json:"entity"`
	Type         string                         `json:"type"`
	Datatype     string                         `json:"datatype"`
	Redirect     string                         `json:"redirect"`
	Labels       map[string]monolingualValue    `json:"labels"`
	Descriptions map[string]monolingualValue    `json:"descriptions"`
	Aliases      map[string][]monolingualValue  `json:"aliases"`
	Claims       map[string][]wikibaseStatement `json:"claims"`
	Sitelinks    map[string]wikibaseSitelink    `json:"sitelinks"`
}

type monolingualValue struct {
	Language string `json:"language"`
	Value    string `json:"value"`
}

type wikibaseStatement struct {
	ID       string       `json:"id"`
	Rank     string       `json:"rank"`
	MainSnak wikibaseSnak `json:"mainsnak"`
}

type wikibaseSnak struct {
	SnakType  string             `json:"snaktype"`
	Property  string             `json:"property"`
	DataValue *wikibaseDataValue `json:"datavalue"`
}

type wikibaseDataValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type wikibaseSitelink struct {
	Site  string `json:"site"`
	Title string `json:"title"`
}

// Convert serializes one raw revision to its triple set. Absent text,
// malformed JSON, and unsupported content models fail with a conversion
// error carrying the offending revision.
func (c *Wikibase) Convert(revision *datamodel.RawRevision) (*datamodel.RdfRevision, error) {
	if c.closed {
		return nil, fmt.Errorf("converter is closed")
	}
	if revision.Text == "" {
		return nil, NewError(ReasonNoText, revision, nil)
	}

	model := revision.Revision.ContentModel
	if model != ModelItem && model != ModelProperty {
		return nil, NewError(ReasonUnsupportedModel, revision, nil)
	}

	var doc wikibaseDocument
	if err := json.Unmarshal([]byte(revision.Text), &doc); err != nil {
		return nil, NewError(ReasonMalformedJSON, revision, err)
	}

	// A top-level "redirect" field marks the entity as redirected from
	// this revision onward. Redirect documents carry "entity" instead of
	// "id".
	if doc.Redirect != "" {
		return c.convertRedirect(doc, revision)
	}
	if doc.ID == "" {
		return nil, NewError(ReasonMalformedJSON, revision, fmt.Errorf("document has no id"))
	}

	subject := c.prefixer.PrefixIRI(wikidata.Namespace + doc.ID)
	var triples []rdf.Triple
	add := func(s, p, o string) {
		triples = append(triples, rdf.Triple{Subject: s, Predicate: p, Object: o})
	}
	rdfType := c.prefixer.PrefixIRI(wikidata.RdfType)

	if model == ModelItem {
		add(subject, rdfType, c.prefixer.PrefixIRI(wikidata.WikibaseItem))
	} else {
		add(subject, rdfType, c.prefixer.PrefixIRI(wikidata.WikibaseProperty))
		if doc.Datatype != "" {
			add(subject, c.prefixer.PrefixIRI(wikidata.WikibasePropertyType),
				c.prefixer.PrefixIRI(wikidata.OntologyNamespace+doc.Datatype))
		}
	}

	for _, label := range doc.Labels {
		add(subject, c.prefixer.PrefixIRI(wikidata.RdfsLabel), literal(label.Value, label.Language))
	}
	for _, description := range doc.Descriptions {
		add(subject, c.prefixer.PrefixIRI(wikidata.SchemaDescription), literal(description.Value, description.Language))
	}
	for _, aliases := range doc.Aliases {
		for _, alias := range aliases {
			add(subject, c.prefixer.PrefixIRI(wikidata.SkosAltLabel), literal(alias.Value, alias.Language))
		}
	}

	for property, statements := range doc.Claims {
		for _, statement := range statements {
			c.addStatement(&triples, subject, property, statement)
		}
	}

	for _, sitelink := range doc.Sitelinks {
		article := sitelinkArticleIRI(sitelink)
		if article != "" {
			add(article, c.prefixer.PrefixIRI(wikidata.SchemaAbout), subject)
		}
	}

	return &datamodel.RdfRevision{
		RevisionBase: revision.RevisionBase,
		Triples:      triples,
	}, nil
}

func (c *Wikibase) convertRedirect(doc wikibaseDocument, revision *datamodel.RawRevision) (*datamodel.RdfRevision, error) {
	source := doc.Entity
	if source == "" {
		source = doc.ID
	}
	if source == "" {
		return nil, NewError(ReasonMalformedJSON, revision, fmt.Errorf("redirect document has no entity"))
	}
	return &datamodel.RdfRevision{
		RevisionBase: revision.RevisionBase,
		Triples: []rdf.Triple{{
			Subject:   c.prefixer.PrefixIRI(wikidata.Namespace + source),
			Predicate: c.prefixer.PrefixIRI(wikidata.OwlSameAs),
			Object:    c.prefixer.PrefixIRI(wikidata.Namespace + doc.Redirect),
		}},
	}, nil
}

// addStatement emits the truthy direct claim plus the reified statement
// node for one statement.
func (c *Wikibase) addStatement(triples *[]rdf.Triple, subject, property string, statement wikibaseStatement) {
	add := func(s, p, o string) {
		*triples = append(*triples, rdf.Triple{Subject: s, Predicate: p, Object: o})
	}

	// Statement ids use "$" between entity id and uuid; the RDF form
	// replaces it with "-".
	node := c.prefixer.PrefixIRI(wikidata.StatementNamespace + strings.Replace(statement.ID, "$", "-", 1))
	add(subject, c.prefixer.PrefixIRI(wikidata.PropertyNamespace+property), node)
	add(node, c.prefixer.PrefixIRI(wikidata.WikibaseRank), c.rankIRI(statement.Rank))

	switch statement.MainSnak.SnakType {
	case "value":
		object, ok := c.renderValue(statement.MainSnak.DataValue)
		if !ok {
			return
		}
		add(subject, c.prefixer.PrefixIRI(wikidata.DirectPropertyNamespace+property), object)
		add(node, c.prefixer.PrefixIRI(wikidata.PropertyStatementNamespace+property), object)
	case "somevalue":
		// Unknown values are blank nodes with run-generated identifiers.
		blank := fmt.Sprintf("%snode%d", rdf.BlankNodeMarker, c.blankSeq.Add(1))
		add(subject, c.prefixer.PrefixIRI(wikidata.DirectPropertyNamespace+property), blank)
		add(node, c.prefixer.PrefixIRI(wikidata.PropertyStatementNamespace+property), blank)
	case "novalue":
		add(node, c.prefixer.PrefixIRI(wikidata.RdfType), c.prefixer.PrefixIRI(wikidata.NoValueNamespace+property))
	}
}

// renderValue turns a snak data value into an object term. Unknown value
// types are dropped rather than failing the whole revision.
func (c *Wikibase) renderValue(value *wikibaseDataValue) (string, bool) {
	if value == nil {
		return "", false
	}
	switch value.Type {
	case "wikibase-entityid":
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(value.Value, &v); err != nil || v.ID == "" {
			return "", false
		}
		return c.prefixer.PrefixIRI(wikidata.Namespace + v.ID), true
	case "string":
		var v string
		if err := json.Unmarshal(value.Value, &v); err != nil {
			return "", false
		}
		return quote(v), true
	case "monolingualtext":
		var v struct {
			Text     string `json:"text"`
			Language string `json:"language"`
		}
		if err := json.Unmarshal(value.Value, &v); err != nil {
			return "", false
		}
		return literal(v.Text, v.Language), true
	case "time":
		var v struct {
			Time string `json:"time"`
		}
		if err := json.Unmarshal(value.Value, &v); err != nil {
			return "", false
		}
		return c.typedLiteral(strings.TrimPrefix(v.Time, "+"), wikidata.XsdDateTime), true
	case "quantity":
		var v struct {
			Amount string `json:"amount"`
		}
		if err := json.Unmarshal(value.Value, &v); err != nil {
			return "", false
		}
		return c.typedLiteral(strings.TrimPrefix(v.Amount, "+"), wikidata.XsdDecimal), true
	case "globecoordinate":
		var v struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := json.Unmarshal(value.Value, &v); err != nil {
			return "", false
		}
		return c.typedLiteral(fmt.Sprintf("Point(%g %g)", v.Longitude, v.Latitude), wikidata.GeoWktLiteral), true
	default:
		return "", false
	}
}

func (c *Wikibase) rankIRI(rank string) string {
	switch rank {
	case "preferred":
		return c.prefixer.PrefixIRI(wikidata.RankPreferred)
	case "deprecated":
		return c.prefixer.PrefixIRI(wikidata.RankDeprecated)
	default:
		return c.prefixer.PrefixIRI(wikidata.RankNormal)
	}
}

func (c *Wikibase) typedLiteral(value, datatype string) string {
	return quote(value) + "^^" + c.prefixer.PrefixIRI(datatype)
}

func literal(value, language string) string {
	if language == "" {
		return quote(value)
	}
	return quote(value) + "@" + language
}

func quote(value string) string {
	escaped := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	).Replace(value)
	return `"` + escaped + `"`
}

// sitelinkArticleIRI derives the article IRI for a sitelink. Only the
// common "<lang>wiki" site group is mapped; other groups are skipped.
func sitelinkArticleIRI(link wikibaseSitelink) string {
	if link.Site == "" || link.Title == "" || !strings.HasSuffix(link.Site, "wiki") {
		return ""
	}
	lang := strings.TrimSuffix(link.Site, "wiki")
	title := strings.ReplaceAll(link.Title, " ", "_")
	return fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, title)
}
