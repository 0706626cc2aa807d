package webservices

import (
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownroute-app/ownroutedal"
)

type AdminService struct {
	logger            *logpkg.Logger
	fs                gofs.Fs
	pathsConfig       *ownroutedal.PathsConfig
	cacheSet          *ownroutedal.CacheSet
	fetchQueue        *ownroutedal.FetchQueue
	importOptions     ownroutedal.ImportOptions
	routerURLBasePath string
	chi.Router
}

func NewAdminService(
	logger *logpkg.Logger,
	fs gofs.Fs,
	pathsConfig *ownroutedal.PathsConfig,
	cacheSet *ownroutedal.CacheSet,
	fetchQueue *ownroutedal.FetchQueue,
	importOptions ownroutedal.ImportOptions,
	routerURLBasePath string,
) *AdminService {
	as := &AdminService{logger, fs, pathsConfig, cacheSet, fetchQueue, importOptions, routerURLBasePath, chi.NewRouter()}

	as.Router.Get("/", as.handleGet)
	as.Router.Post("/rawDataFile", as.handlePostRawDataFile)

	return as
}

type importResponseType struct {
	Key          string `json:"key"`
	ElementCount int    `json:"elementCount"`
}

// handlePostRawDataFile stores an uploaded OpenStreetMap extract in the raw data dir, and imports its roads into the caches.
// The cache key is derived from the file name, without its extension.
func (as *AdminService) handlePostRawDataFile(w http.ResponseWriter, r *http.Request) {
	multipartFile, formData, err := r.FormFile("rawDataFile")
	if err != nil {
		errorsx.HTTPJSONError(w, as.logger, errorsx.Wrap(err), http.StatusBadRequest)
		return
	}
	defer multipartFile.Close()

	fileName := filepath.Base(formData.Filename)
	key := ownroutedal.CacheKeyFromPlaceName(strings.TrimSuffix(fileName, filepath.Ext(fileName)))
	keyErr := ownroutedal.ValidateCacheKey(key)
	if keyErr != nil {
		writeError(w, as.logger, keyErr)
		return
	}

	rawDataFilePath := filepath.Join(as.pathsConfig.RawDataFilesDir, fileName)
	file, err := as.fs.Create(rawDataFilePath)
	if err != nil {
		errorsx.HTTPJSONError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}

	_, err = io.Copy(file, multipartFile)
	if err != nil {
		file.Close()
		errorsx.HTTPJSONError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}

	err = file.Close()
	if err != nil {
		errorsx.HTTPJSONError(w, as.logger, errorsx.Wrap(err), http.StatusInternalServerError)
		return
	}

	doc, importErr := ownroutedal.ImportOSMFile(r.Context(), as.logger, as.fs, rawDataFilePath, as.importOptions)
	if importErr != nil {
		errorsx.HTTPJSONError(w, as.logger, importErr, http.StatusBadRequest)
		return
	}

	importErr = as.cacheSet.Put(r.Context(), key, doc)
	if importErr != nil {
		writeError(w, as.logger, importErr)
		return
	}

	render.JSON(w, r, importResponseType{key, len(doc.Elements)})
}

func (as *AdminService) handleGet(w http.ResponseWriter, r *http.Request) {
	var cacheNames []string
	for _, cache := range as.cacheSet.GetCaches() {
		cacheNames = append(cacheNames, cache.Name())
	}

	keys, err := as.cacheSet.Keys(r.Context())
	if err != nil {
		writeError(w, as.logger, err)
		return
	}

	data := map[string]interface{}{
		"CacheNames":        cacheNames,
		"CacheKeys":         keys,
		"RouterURLBasePath": as.routerURLBasePath,
		"FetchQueueStatus":  as.fetchQueue.GetItems(),
	}

	if as.pathsConfig != nil {
		data["RawDataImportPath"] = as.pathsConfig.RawDataFilesDir
		data["CacheDirPath"] = as.pathsConfig.CacheDir
	}

	tmplErr := adminTmpl.Execute(w, data)
	if tmplErr != nil {
		errorsx.HTTPError(w, as.logger, errorsx.Wrap(tmplErr), http.StatusInternalServerError)
		return
	}
}

var adminTmpl *template.Template

func init() {
	var err error
	adminTmpl, err = template.New("admin/index.html").Parse(adminTemplate)
	if err != nil {
		panic(err)
	}
}

const adminTemplate = `
<html>
	<head>
		<title>admin</title>
		<style type="text/css">
		div {
			margin: 10px;
			border: 1px solid grey;
			padding: 10px;
		}
		</style>
		<script>
		function submitRawDataFile(formEl) {
			const formData = new FormData(formEl);

			fetch('/{{.RouterURLBasePath}}/rawDataFile', {method: 'POST', body: formData})
				.then(resp => resp.json())
				.then(body => alert('imported ' + body.elementCount + ' elements as "' + body.key + '"'))
				.catch(e => {
					console.error(e);
					alert('failed to import raw data file: ' + e);
				});
		}

		function submitPlace(formEl) {
			const place = formEl.elements["place"].value;

			fetch('/api/places/queue', {method: 'POST', body: JSON.stringify({place})})
				.then(() => alert('queued "' + place + '" for download. Refresh the page for updates.'))
				.catch(e => {
					console.error(e);
					alert('failed to queue place: ' + e);
				});
		}
		</script>
	</head>
	<body>
		<h1>Admin settings</h1>
		<div>
			<h2>Caches</h2>
			{{range .CacheNames}}
				<p>{{.}}</p>
			{{end}}
			{{if .CacheDirPath}}<p>Cache files are stored in <pre>{{.CacheDirPath}}</pre></p>{{end}}
		</div>

		<div>
			<h2>Cached places</h2>
			{{range .CacheKeys}}
				<p>{{.}}</p>
			{{else}}
				<p>No places cached yet</p>
			{{end}}
		</div>

		<div>
			<h2>Fetch Queue:</h2>
			<sub>Refresh page for updates</sub>
			{{range .FetchQueueStatus}}
				<h3>{{.Place}} ({{.Key}})</h3>
				<p>Status: {{.Status}}</p>
				<p>Elements: {{.ElementCount}}</p>
				<p>Time in progress: {{.TimeInProgress}}</p>
				{{if .ErrorMessage}}<p>Error: {{.ErrorMessage}}</p>{{end}}
			{{end}}
		</div>

		<div>
			<h2>Download a place</h2>
			<p>Looks the place up with Nominatim, and downloads its roads from the Overpass API</p>
			<form action="javascript:;" onsubmit="submitPlace(this)">
				<label>
					Place
					<input type="text" name="place" placeholder="Belo Horizonte, Minas Gerais, Brazil" />
				</label>
				<input type="submit" value="Go!" />
			</form>
		</div>

		<div>
			<h2>Import an OpenStreetMap extract</h2>
			<form action="javascript:;" method="POST" enctype="multipart/form-data" onsubmit="submitRawDataFile(this)" name="rawDataUploadForm">
				<p>OpenStreetMap extract file (.pbf or .osm file).</p>
				<p>This will be copied into <pre>{{.RawDataImportPath}}</pre> and its roads stored under a key made from the file name</p>
				<p>
					<label>
						OpenStreetMap extract file
						<input type="file" name="rawDataFile" />
					</label>
				</p>
				<input type="submit" value="Go!" />
			</form>
		</div>
	</body>
</html>
`
