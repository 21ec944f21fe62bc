// Package docs Gestao API documentation
package docs

// Swagger documentation info
// @title Gestao API
// @version 1.0
// @description Multi-tenant business management API: companies, teams, projects, goals and 1:1 messaging.

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @tag.name auth
// @tag.description Authentication and account management
// @tag.name companies
// @tag.description Company (tenant) management
// @tag.name user-companies
// @tag.description Company membership management
// @tag.name projects
// @tag.description Project and team management
// @tag.name goals
// @tag.description Goal and KPI tracking
// @tag.name messages
// @tag.description Company-scoped 1:1 messaging
// @tag.name users
// @tag.description User profiles and avatars
