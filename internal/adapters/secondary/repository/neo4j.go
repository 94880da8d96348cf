package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jGraph recopie les arêtes FOLLOWS de la session dans Neo4j.
type Neo4jGraph struct {
	driver neo4j.DriverWithContext
}

func NewNeo4jGraph(driver neo4j.DriverWithContext) *Neo4jGraph {
	return &Neo4jGraph{driver: driver}
}

// EnsureSchema crée la contrainte d'unicité sur User.id (et donc l'index).
func (r *Neo4jGraph) EnsureSchema(ctx context.Context) error {
	return r.write(ctx, `CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`, nil)
}

// CreateRelation est idempotent grâce à MERGE.
func (r *Neo4jGraph) CreateRelation(ctx context.Context, actorID, targetID string) error {
	query := `
		MERGE (a:User {id: $actorId})
		MERGE (b:User {id: $targetId})
		MERGE (a)-[r:FOLLOWS]->(b)
		ON CREATE SET r.created_at = datetime()
	`
	return r.write(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
}

func (r *Neo4jGraph) DeleteRelation(ctx context.Context, actorID, targetID string) error {
	query := `
		MATCH (a:User {id: $actorId})-[r:FOLLOWS]->(b:User {id: $targetId})
		DELETE r
	`
	return r.write(ctx, query, map[string]any{"actorId": actorID, "targetId": targetID})
}

func (r *Neo4jGraph) write(ctx context.Context, query string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}
