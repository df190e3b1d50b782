package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create agents table
			CREATE TABLE agents (
				id VARCHAR(255) PRIMARY KEY,
				kind VARCHAR(50) NOT NULL CHECK (kind IN ('conversational', 'process')),
				name VARCHAR(255) NOT NULL,
				goal TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				personality JSONB,
				tasks JSONB,
				tools JSONB,
				knowledge JSONB,
				access JSONB,
				guardrails JSONB,
				model JSONB,
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published')),
				owner_id VARCHAR(255) NOT NULL DEFAULT '',
				created_by VARCHAR(255) NOT NULL DEFAULT '',
				owner_assumed BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_agents_status ON agents(status);
			CREATE INDEX idx_agents_owner_id ON agents(owner_id);
			CREATE INDEX idx_agents_updated_at ON agents(updated_at);
			CREATE INDEX idx_agents_deleted_at ON agents(deleted_at);
		`,
		2: `
			-- Create executions table
			CREATE TABLE executions (
				id VARCHAR(255) PRIMARY KEY,
				agent_id VARCHAR(255) NOT NULL REFERENCES agents(id),
				status VARCHAR(50) NOT NULL CHECK (status IN ('running', 'waiting_approval', 'completed', 'failed')),
				trace JSONB,
				subtitle TEXT NOT NULL DEFAULT '',
				approval_id VARCHAR(255),
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_executions_agent_id ON executions(agent_id);
			CREATE INDEX idx_executions_status ON executions(status);
			CREATE INDEX idx_executions_started_at ON executions(started_at);
		`,
		3: `
			-- Create capability grants table for delegated editors
			CREATE TABLE capability_grants (
				agent_id VARCHAR(255) NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
				actor_id VARCHAR(255) NOT NULL,
				capabilities JSONB NOT NULL DEFAULT '[]',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				PRIMARY KEY (agent_id, actor_id)
			);

			CREATE INDEX idx_capability_grants_actor_id ON capability_grants(actor_id);
		`,
	}
}
