package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/api/middleware"
	"github.com/jamiemarshall1919/Lesson-pilot/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.GET("ready").
			To(handler.Ready).
			Doc("Index readiness").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(ReadyResponse{}).
			Returns(200, "OK", ReadyResponse{}).
			Returns(503, "Index Not Loaded", ReadyResponse{}))

	ws.
		Route(ws.POST("/standards/select").
			To(handler.Select).
			Doc("Select a curriculum standard for a topic").
			Metadata(restfulspec.KeyOpenAPITags, []string{"standards"}).
			Reads(models.SelectionRequest{}).
			Writes(models.Outcome{}).
			Returns(200, "OK", models.Outcome{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
			Returns(502, "Oracle Failure", middleware.ErrorResponse{}))

	container.Add(ws)
}

// RegisterOpenAPI serves the generated OpenAPI document at /apidocs.json.
func RegisterOpenAPI(container *restful.Container) {
	cfg := restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
		PostBuildSwaggerObjectHandler: func(swo *spec.Swagger) {
			swo.Info = &spec.Info{
				InfoProps: spec.InfoProps{
					Title:       "Lesson Pilot Standards API",
					Description: "Curriculum standard retrieval and selection",
					Version:     "1.0.0",
				},
			}
			swo.Tags = []spec.Tag{
				{TagProps: spec.TagProps{Name: "standards", Description: "Standard selection"}},
				{TagProps: spec.TagProps{Name: "health", Description: "Liveness and readiness"}},
			}
		},
	}
	container.Add(restfulspec.NewOpenAPIService(cfg))
}
