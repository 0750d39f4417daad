package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/princinho/sahohr/database"
	"github.com/princinho/sahohr/utils"
)

// Employee documents live in the object store; these handlers are thin glue
// over the storage collaborator.

// POST /admin/employees/:id/documents  (multipart field "file")
func UploadDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		employeeID, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			utils.RespondError(c, utils.ValidationError("invalid employee id"))
			return
		}

		employeesCol := database.OpenCollection("employees")
		if err := employeesCol.FindOne(ctx, utils.ActiveOnly(bson.M{"_id": employeeID})).Err(); err != nil {
			utils.RespondError(c, utils.NotFoundError("employee not found"))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			utils.RespondError(c, utils.ValidationError("file is required"))
			return
		}

		client, bucket, err := utils.NewGCSClient(ctx)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer client.Close()

		doc, err := utils.UploadEmployeeDocument(ctx, client, bucket, employeeID.Hex(), fileHeader)
		if err != nil {
			utils.RespondError(c, utils.ValidationError(err.Error()))
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

// GET /admin/employees/:id/documents/url?object=<objectName>
func GetDocumentURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		objectName := c.Query("object")
		if objectName == "" {
			utils.RespondError(c, utils.ValidationError("object query parameter is required"))
			return
		}

		client, bucket, err := utils.NewGCSClient(c.Request.Context())
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer client.Close()

		url, err := utils.SignedDocumentURL(client, bucket, objectName)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// DELETE /admin/employees/:id/documents?object=<objectName>
func DeleteDocument() gin.HandlerFunc {
	return func(c *gin.Context) {
		objectName := c.Query("object")
		if objectName == "" {
			utils.RespondError(c, utils.ValidationError("object query parameter is required"))
			return
		}

		ctx := c.Request.Context()
		client, bucket, err := utils.NewGCSClient(ctx)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		defer client.Close()

		if err := utils.DeleteEmployeeDocument(ctx, client, bucket, objectName); err != nil {
			utils.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
	}
}
