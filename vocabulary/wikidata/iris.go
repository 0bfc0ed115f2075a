package wikidata

// Namespace is the base IRI for Wikidata entity instances.
const Namespace = "http://www.wikidata.org/entity/"

// StatementNamespace is the base IRI for reified statement nodes.
const StatementNamespace = "http://www.wikidata.org/entity/statement/"

// OntologyNamespace is the base IRI of the Wikibase ontology itself.
const OntologyNamespace = "http://wikiba.se/ontology#"

// Standard ontology IRI constants used directly by the converter.
const (
	// RdfType is the rdf:type property.
	RdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	// RdfsLabel is the rdfs:label property.
	RdfsLabel = "http://www.w3.org/2000/01/rdf-schema#label"

	// OwlSameAs marks an entity redirect. The Wikidata Query Service
	// represents redirects the same way.
	OwlSameAs = "http://www.w3.org/2002/07/owl#sameAs"

	// SchemaDescription is the schema.org description property.
	SchemaDescription = "http://schema.org/description"

	// SchemaAbout links a sitelink article to its entity.
	SchemaAbout = "http://schema.org/about"

	// SkosAltLabel is the SKOS alternative-label property used for aliases.
	SkosAltLabel = "http://www.w3.org/2004/02/skos/core#altLabel"

	// WikibaseItem is the ontology class of items.
	WikibaseItem = OntologyNamespace + "Item"

	// WikibaseProperty is the ontology class of properties.
	WikibaseProperty = OntologyNamespace + "Property"

	// WikibaseRank is the rank property of reified statements.
	WikibaseRank = OntologyNamespace + "rank"

	// WikibasePropertyType links a property entity to its datatype class.
	WikibasePropertyType = OntologyNamespace + "propertyType"

	// Statement rank individuals.
	RankPreferred  = OntologyNamespace + "PreferredRank"
	RankNormal     = OntologyNamespace + "NormalRank"
	RankDeprecated = OntologyNamespace + "DeprecatedRank"

	// DirectPropertyNamespace is the base IRI of truthy direct claims.
	DirectPropertyNamespace = "http://www.wikidata.org/prop/direct/"

	// PropertyNamespace is the base IRI linking entities to statement nodes.
	PropertyNamespace = "http://www.wikidata.org/prop/"

	// PropertyStatementNamespace is the base IRI linking statement nodes to
	// their main values.
	PropertyStatementNamespace = "http://www.wikidata.org/prop/statement/"

	// NoValueNamespace is the base IRI of per-property no-value classes.
	NoValueNamespace = "http://www.wikidata.org/prop/novalue/"

	// Datatype IRIs attached to typed literals.
	XsdDateTime   = "http://www.w3.org/2001/XMLSchema#dateTime"
	XsdDecimal    = "http://www.w3.org/2001/XMLSchema#decimal"
	GeoWktLiteral = "http://www.opengis.net/ont/geosparql#wktLiteral"
)

// Prefixes maps registered ontology URI prefixes to their shortcodes.
//
// Taken from the Wikibase RDF dump format documentation ("Full list of
// prefixes"). Longest-prefix matching is handled by Prefixer, so the map
// order here does not matter.
var Prefixes = map[string]string{
	"http://creativecommons.org/ns#":                             "cc",
	"http://purl.org/dc/terms/":                                  "dct",
	"http://schema.org/":                                         "schema",
	"http://wikiba.se/ontology#":                                 "wikibase",
	"http://www.bigdata.com/queryHints#":                         "hint",
	"http://www.bigdata.com/rdf#":                                "bd",
	"http://www.opengis.net/ont/geosparql#":                      "geo",
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#":                "rdf",
	"http://www.w3.org/2000/01/rdf-schema#":                      "rdfs",
	"http://www.w3.org/2001/XMLSchema#":                          "xsd",
	"http://www.w3.org/2002/07/owl#":                             "owl",
	"http://www.w3.org/2004/02/skos/core#":                       "skos",
	"http://www.w3.org/ns/lemon/ontolex#":                        "ontolex",
	"http://www.w3.org/ns/prov#":                                 "prov",
	"http://www.wikidata.org/entity/":                            "wd",
	"http://www.wikidata.org/entity/statement/":                  "wds",
	"http://www.wikidata.org/prop/":                              "p",
	"http://www.wikidata.org/prop/direct-normalized/":            "wdtn",
	"http://www.wikidata.org/prop/direct/":                       "wdt",
	"http://www.wikidata.org/prop/novalue/":                      "wdno",
	"http://www.wikidata.org/prop/qualifier/":                    "pq",
	"http://www.wikidata.org/prop/qualifier/value-normalized/":   "pqn",
	"http://www.wikidata.org/prop/qualifier/value/":              "pqv",
	"http://www.wikidata.org/prop/reference/":                    "pr",
	"http://www.wikidata.org/prop/reference/value-normalized/":   "prn",
	"http://www.wikidata.org/prop/reference/value/":              "prv",
	"http://www.wikidata.org/prop/statement/":                    "ps",
	"http://www.wikidata.org/prop/statement/value-normalized/":   "psn",
	"http://www.wikidata.org/prop/statement/value/":              "psv",
	"http://www.wikidata.org/reference/":                         "wdref",
	"http://www.wikidata.org/value/":                             "wdv",
	"http://www.wikidata.org/wiki/Special:EntityData/":           "wdata",
}
