package mcpserver

// TaxonomyLayoutContract describes the taxonomy package layout the
// reader understands. LLM consumers should consult it before pointing
// read_taxonomy at an unfamiliar directory tree.
const TaxonomyLayoutContract = `# Ansuz Taxonomy Layout Contract

A taxonomy root is a directory the reader comprehends file by file.

## Expected contents

` + "```" + `
us-gaap-2025/                 # root name encodes <name>-<version>
    catalog.xml               # OPTIONAL namespace catalog
    us-gaap-2025.xsd          # entry-point schema (name convention)
    elts/*.xsd                # additional structural schemas
    stm/*_pre.xml             # presentation linkbases
    stm/*_cal.xml             # calculation linkbases
    stm/*_def.xml             # definition linkbases
    stm/*_lab.xml             # label linkbases
` + "```" + `

## Rules

1. **Root directory name** is parsed as ` + "`" + `<name>-<version>` + "`" + ` (last dash
   wins). A name with no dash gets version ` + "`" + `unknown` + "`" + `.
2. **Catalog is optional.** Standard locations: ` + "`" + `catalog.xml` + "`" + `,
   ` + "`" + `META-INF/catalog.xml` + "`" + `, ` + "`" + `taxonomies/catalog.xml` + "`" + `. Without one,
   references resolve relative to the referencing file.
3. **Entry point discovery order**: ` + "`" + `<root-name>.xsd` + "`" + `, ` + "`" + `taxonomy.xsd` + "`" + `,
   ` + "`" + `main.xsd` + "`" + `, then catalog-declared schema locations, then the
   largest ` + "`" + `.xsd` + "`" + ` found anywhere under the root.
4. **Schemas must declare a target namespace.** The entry point's
   namespace becomes the profile's primary namespace.
5. **Roles** are ` + "`" + `roleType` + "`" + ` declarations inside schema annotations.
   Classification into statement types is keyword-based and
   best-effort; ` + "`" + `unclassified` + "`" + ` is a normal outcome, not an error.
6. **Partial failures are tolerated.** Malformed referenced files are
   recorded on the profile's error list; only a missing root or
   unusable entry point aborts a read.
7. The reader never writes under the taxonomy root.
`
