package repository

import (
	"github.com/cosmosuniversity/studentrecords/internal/config"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/entities"
)

// StudentRepository stores students in the student collection.
type StudentRepository = Repository[entities.Student, *entities.Student]

// StudentCollection is the fixed location of student documents.
var StudentCollection = documentdb.NewCollection(config.DatabaseName, config.CollectionName)

// NewStudentRepository creates the student repository on client.
func NewStudentRepository(client documentdb.Client) *StudentRepository {
	return New[entities.Student, *entities.Student](client, StudentCollection)
}
