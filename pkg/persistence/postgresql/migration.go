package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE projects (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				owner VARCHAR(255) NOT NULL,
				pipeline_id VARCHAR(64) NOT NULL,
				current_stage_index INT NOT NULL DEFAULT 0,
				stage_executions JSONB NOT NULL DEFAULT '{}',
				model_preferences JSONB,
				payload JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_projects_owner ON projects(owner);
			CREATE INDEX idx_projects_pipeline ON projects(pipeline_id);
			CREATE INDEX idx_projects_deleted_at ON projects(deleted_at);

			CREATE TABLE prompt_templates (
				stage_type VARCHAR(64) NOT NULL,
				id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				prompts JSONB NOT NULL,
				variables JSONB,
				is_default BOOLEAN NOT NULL DEFAULT false,
				is_active BOOLEAN NOT NULL DEFAULT true,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (stage_type, id)
			);

			CREATE INDEX idx_prompt_templates_default ON prompt_templates(stage_type) WHERE is_default AND is_active;

			CREATE TABLE prompt_overrides (
				project_id VARCHAR(255) NOT NULL,
				stage_type VARCHAR(64) NOT NULL,
				template JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (project_id, stage_type)
			);

			CREATE TABLE recipes (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				nodes JSONB NOT NULL,
				edges JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
		2: `
			CREATE TABLE recipe_runs (
				id VARCHAR(255) PRIMARY KEY,
				recipe_id VARCHAR(255) NOT NULL,
				project_id VARCHAR(255),
				status VARCHAR(32) NOT NULL,
				results JSONB NOT NULL DEFAULT '[]',
				outputs JSONB,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_recipe_runs_recipe ON recipe_runs(recipe_id);
			CREATE INDEX idx_recipe_runs_started_at ON recipe_runs(started_at);
		`,
	}
}
