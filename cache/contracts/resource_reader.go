package contracts

type IResourceReader interface {
	ReadResource(resourceID string) ([]byte, error)
}
