package query

// DefaultExamples are the few-shot pairs used when none are configured.
func DefaultExamples() []Example {
	return []Example{
		{
			Question: "List all methods in the 'UserService' class",
			Cypher:   "MATCH (c:Class {name: 'UserService'})-[:HAS_METHOD]->(m:Method) RETURN m.name AS method, m.return_type AS return_type",
		},
		{
			Question: "Which repositories does billing-api depend on?",
			Cypher:   "MATCH (r:Repository {name: 'billing-api'})-[:DEPENDS_ON]->(d:Repository) RETURN d.name AS repository",
		},
		{
			Question: "Which classes call the stored procedure usp_GetOrders?",
			Cypher:   "MATCH (c:Class)-[:CALLS_SP]->(sp:StoredProcedure {name: 'usp_GetOrders'}) RETURN c.name AS class, c.file_path AS file_path",
		},
		{
			Question: "How many classes does each repository contain?",
			Cypher:   "MATCH (r:Repository)-[:HAS_CLASSES]->(c:Class) RETURN r.name AS repository, count(c) AS classes ORDER BY classes DESC",
		},
	}
}
