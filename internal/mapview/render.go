// Package mapview renders the clustering result as a single self-contained
// HTML document and as GeoJSON. The HTML artifact embeds all marker data and
// script inline so it opens from disk with no network access.
package mapview

import (
	"encoding/json"
	"html/template"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocluster/internal/model"
)

type marker struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Cluster     int     `json:"cluster"`
	Color       string  `json:"color"`
	Terms       string  `json:"terms"`
	Description string  `json:"description"`
}

type mapData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Markers   template.JS
}

// Render writes the interactive HTML map for the clustered records. The view
// is centered on the mean latitude and longitude of all points, markers are
// drawn in input order, and each marker's popup shows its cluster id, the
// cluster's top terms and the original description.
func Render(w io.Writer, title string, records []model.ClusteredRecord, summaries map[int]model.ClusterSummary, colors map[int]string) error {
	markers := make([]marker, 0, len(records))
	var sumLat, sumLon float64
	for _, r := range records {
		m := marker{
			ID:          r.ID,
			Lat:         r.Latitude,
			Lon:         r.Longitude,
			Cluster:     r.ClusterID,
			Color:       colors[r.ClusterID],
			Description: r.Description,
		}
		if s, ok := summaries[r.ClusterID]; ok {
			m.Terms = strings.Join(s.TopTerms, ", ")
		}
		markers = append(markers, m)
		sumLat += r.Latitude
		sumLon += r.Longitude
	}

	data := mapData{Title: title}
	if n := len(markers); n > 0 {
		data.CenterLat = sumLat / float64(n)
		data.CenterLon = sumLon / float64(n)
	}

	encoded, err := json.Marshal(markers)
	if err != nil {
		return eris.Wrap(err, "mapview: encode markers")
	}
	data.Markers = template.JS(encoded)

	if err := pageTemplate.Execute(w, data); err != nil {
		return eris.Wrap(err, "mapview: render html")
	}

	zap.L().Debug("mapview: rendered map",
		zap.Int("markers", len(markers)),
		zap.Float64("center_lat", data.CenterLat),
		zap.Float64("center_lon", data.CenterLon),
	)
	return nil
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; height: 100%; font-family: sans-serif; }
  #map { width: 100%; height: 100%; background: #e8ecef; cursor: grab; }
  #map.dragging { cursor: grabbing; }
  #popup {
    position: absolute; display: none; max-width: 320px;
    background: #fff; border: 1px solid #888; border-radius: 4px;
    padding: 8px 10px; font-size: 13px; box-shadow: 0 2px 6px rgba(0,0,0,.3);
  }
  #popup .cluster { font-weight: bold; }
  #popup .terms { color: #444; margin: 4px 0; }
</style>
</head>
<body>
<canvas id="map"></canvas>
<div id="popup"></div>
<script>
var MARKERS = {{.Markers}};
var CENTER = { lat: {{.CenterLat}}, lon: {{.CenterLon}} };

var canvas = document.getElementById("map");
var popup = document.getElementById("popup");
var ctx = canvas.getContext("2d");
var view = { lat: CENTER.lat, lon: CENTER.lon, scale: 0 };

function fitScale() {
  if (MARKERS.length < 2) { return 50; }
  var minLat = Infinity, maxLat = -Infinity, minLon = Infinity, maxLon = -Infinity;
  MARKERS.forEach(function (m) {
    minLat = Math.min(minLat, m.lat); maxLat = Math.max(maxLat, m.lat);
    minLon = Math.min(minLon, m.lon); maxLon = Math.max(maxLon, m.lon);
  });
  var spanLat = Math.max(maxLat - minLat, 1e-6);
  var spanLon = Math.max(maxLon - minLon, 1e-6);
  return 0.85 * Math.min(canvas.height / spanLat, canvas.width / spanLon);
}

function project(m) {
  return {
    x: canvas.width / 2 + (m.lon - view.lon) * view.scale,
    y: canvas.height / 2 - (m.lat - view.lat) * view.scale
  };
}

function draw() {
  ctx.clearRect(0, 0, canvas.width, canvas.height);
  MARKERS.forEach(function (m) {
    var p = project(m);
    ctx.beginPath();
    ctx.arc(p.x, p.y, 6, 0, 2 * Math.PI);
    ctx.fillStyle = m.color || "#808080";
    ctx.fill();
    ctx.lineWidth = 1;
    ctx.strokeStyle = "#333";
    ctx.stroke();
  });
}

function resize() {
  canvas.width = window.innerWidth;
  canvas.height = window.innerHeight;
  if (view.scale === 0) { view.scale = fitScale(); }
  draw();
}

window.addEventListener("resize", resize);

canvas.addEventListener("wheel", function (e) {
  e.preventDefault();
  var factor = e.deltaY < 0 ? 1.25 : 0.8;
  var before = { lon: view.lon + (e.offsetX - canvas.width / 2) / view.scale,
                 lat: view.lat - (e.offsetY - canvas.height / 2) / view.scale };
  view.scale *= factor;
  view.lon = before.lon - (e.offsetX - canvas.width / 2) / view.scale;
  view.lat = before.lat + (e.offsetY - canvas.height / 2) / view.scale;
  popup.style.display = "none";
  draw();
});

var drag = null;
canvas.addEventListener("mousedown", function (e) {
  drag = { x: e.clientX, y: e.clientY, moved: false };
  canvas.classList.add("dragging");
});
window.addEventListener("mousemove", function (e) {
  if (!drag) { return; }
  view.lon -= (e.clientX - drag.x) / view.scale;
  view.lat += (e.clientY - drag.y) / view.scale;
  drag.x = e.clientX;
  drag.y = e.clientY;
  drag.moved = true;
  popup.style.display = "none";
  draw();
});
window.addEventListener("mouseup", function (e) {
  canvas.classList.remove("dragging");
  if (drag && !drag.moved) { showPopup(e); }
  drag = null;
});

function showPopup(e) {
  var hit = null, best = 100;
  MARKERS.forEach(function (m) {
    var p = project(m);
    var d = (p.x - e.clientX) * (p.x - e.clientX) + (p.y - e.clientY) * (p.y - e.clientY);
    if (d < best) { best = d; hit = m; }
  });
  if (!hit) { popup.style.display = "none"; return; }
  var name = hit.cluster === -1 ? "noise" : "cluster " + hit.cluster;
  popup.innerHTML = "";
  var head = document.createElement("div");
  head.className = "cluster";
  head.textContent = name;
  var terms = document.createElement("div");
  terms.className = "terms";
  terms.textContent = hit.terms;
  var desc = document.createElement("div");
  desc.textContent = hit.description;
  popup.appendChild(head);
  popup.appendChild(terms);
  popup.appendChild(desc);
  popup.style.left = (e.clientX + 12) + "px";
  popup.style.top = (e.clientY + 12) + "px";
  popup.style.display = "block";
}

resize();
</script>
</body>
</html>
`))
