package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed resources.sql
var resourcesSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed citations.sql
var citationsSQL string

//go:embed taxonomy.sql
var taxonomySQL string

// Function lists for verification
var ResourcesFunctions = []string{
	"init_resources",
	"insert_resource",
	"select_resource",
	"select_all_resources",
	"select_resources_with_embedding",
	"select_resources_by_subjects",
	"select_resources_by_classification",
	"select_resources_without_embedding",
	"update_resource_embedding",
	"delete_resource",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge_if_absent",
	"select_edge",
	"select_all_edges",
	"select_edges_connected_to_resource",
	"count_edges",
	"delete_edge",
	"delete_edges_by_type",
}

var CitationsFunctions = []string{
	"init_citations",
	"insert_citation",
	"resolve_citation",
	"select_resolved_citations",
	"delete_citation",
}

var TaxonomyFunctions = []string{
	"init_taxonomy",
	"insert_taxonomy_node",
	"select_taxonomy_node",
	"insert_taxonomy_membership",
	"select_taxonomy_groups",
	"delete_taxonomy_membership",
	"delete_taxonomy_node",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// DropTables drops all relgraph tables, dependent tables first.
func DropTables(db *sql.DB) error {
	_, err := db.Exec(`DROP TABLE IF EXISTS taxonomy_memberships, taxonomy_nodes, citations, structural_edges, resources CASCADE;`)
	if err != nil {
		return fmt.Errorf("error dropping tables: %w", err)
	}
	return nil
}

// LoadResourcesSql loads resource catalog SQL functions
func LoadResourcesSql(db *sql.DB, force bool) error {
	return loadSql(db, "resources", resourcesSQL, ResourcesFunctions, force)
}

// LoadEdgesSql loads structural edge SQL functions
func LoadEdgesSql(db *sql.DB, force bool) error {
	return loadSql(db, "edges", edgesSQL, EdgesFunctions, force)
}

// LoadCitationsSql loads citation SQL functions
func LoadCitationsSql(db *sql.DB, force bool) error {
	return loadSql(db, "citations", citationsSQL, CitationsFunctions, force)
}

// LoadTaxonomySql loads taxonomy SQL functions
func LoadTaxonomySql(db *sql.DB, force bool) error {
	return loadSql(db, "taxonomy", taxonomySQL, TaxonomyFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	loaders := []func(*sql.DB, bool) error{
		LoadResourcesSql,
		LoadEdgesSql,
		LoadCitationsSql,
		LoadTaxonomySql,
	}
	for _, load := range loaders {
		if err := load(db, force); err != nil {
			return err
		}
	}
	return nil
}

// loadSql executes script unless all functions exist already.
// With force the script is always executed.
func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
