package contracts

import "github.com/RoscoeTheDog/codectx/token_management/models"

type ITokenManagement interface {
	EstimateText(text string) int
	EstimateCode(code string) int
	EstimateStructured(payload interface{}) int
	EstimateBatch(items []string, kind models.EstimateKind) int
	Project(tokens int, from models.DetailLevel, to models.DetailLevel) int
	EstimateWithProjections(content string, kind models.EstimateKind, level models.DetailLevel) models.TokenEstimate
	AddServedTokens(tokens int)
	ServedTokens() (served int, requests int)
	ClearServedTokens()
	DisplayServedTokens()
}
