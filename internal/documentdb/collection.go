package documentdb

import (
	"fmt"
	"net/url"
)

// Collection addresses one collection inside a database.
type Collection struct {
	Database string
	Name     string
}

// NewCollection returns a collection reference.
func NewCollection(database, name string) Collection {
	return Collection{Database: database, Name: name}
}

// Link returns the collection's resource path, e.g. dbs/cosmosuniversity/colls/student.
func (c Collection) Link() string {
	return fmt.Sprintf("dbs/%s/colls/%s", url.PathEscape(c.Database), url.PathEscape(c.Name))
}

// DocumentLink returns the resource path of a document within the collection.
func (c Collection) DocumentLink(id string) string {
	return c.Link() + "/docs/" + url.PathEscape(id)
}

func (c Collection) String() string {
	return c.Database + "/" + c.Name
}
