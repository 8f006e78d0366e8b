package notify

import "html/template"

var newListingsTmpl = template.Must(template.New("new_listings").Parse(`<html>
<head><style>
  body { font-family: Arial, sans-serif; }
  .container { max-width: 800px; margin: 0 auto; }
  .header { background-color: #4CAF50; color: white; padding: 10px; text-align: center; }
  .item { border-bottom: 1px solid #ddd; padding: 10px; }
  .item-title { font-weight: bold; }
  .item-price { color: #e63946; font-weight: bold; }
  .item-image { max-width: 150px; max-height: 150px; }
</style></head>
<body><div class="container">
  <div class="header">
    <h2>{{.StoreName}} - New Listings</h2>
    <p>{{len .Items}} new listing(s) found</p>
  </div>
  {{range .Items}}<div class="item">
    <div class="item-title">{{.Title}}</div>
    <div class="item-price">${{printf "%.2f" .Price}}</div>
    {{if .ImageURL}}<img class="item-image" src="{{.ImageURL}}" alt="listing image">{{end}}
    <p><a href="{{.URL}}" target="_blank">View listing</a></p>
  </div>{{end}}
</div></body></html>`))

var priceChangesTmpl = template.Must(template.New("price_changes").Parse(`<html>
<head><style>
  body { font-family: Arial, sans-serif; }
  .container { max-width: 800px; margin: 0 auto; }
  .header { background-color: #3498db; color: white; padding: 10px; text-align: center; }
  .item { border-bottom: 1px solid #ddd; padding: 10px; }
  .item-title { font-weight: bold; }
  .old-price { text-decoration: line-through; color: #777; }
  .new-price { color: #e63946; font-weight: bold; }
  .price-up { color: #e63946; }
  .price-down { color: #2ecc71; }
</style></head>
<body><div class="container">
  <div class="header">
    <h2>{{.StoreName}} - Price Changes</h2>
    <p>{{len .Changes}} listing(s) changed price</p>
  </div>
  {{range .Changes}}<div class="item">
    <div class="item-title">{{.Title}}</div>
    <span class="old-price">${{printf "%.2f" .OldPrice}}</span>
    <span class="new-price">${{printf "%.2f" .NewPrice}}</span>
    {{if .Up}}<span class="price-up">(+{{printf "%.2f" .Delta}})</span>
    {{else}}<span class="price-down">({{printf "%.2f" .Delta}})</span>{{end}}
    <p><a href="{{.URL}}" target="_blank">View listing</a></p>
  </div>{{end}}
</div></body></html>`))

var comparisonTmpl = template.Must(template.New("comparison").Parse(`<html>
<head><style>
  body { font-family: Arial, sans-serif; }
  .container { max-width: 800px; margin: 0 auto; }
  .header { background-color: #9b59b6; color: white; padding: 10px; text-align: center; }
  .row { padding: 8px; border-bottom: 1px solid #ddd; }
  .delta { font-weight: bold; }
</style></head>
<body><div class="container">
  <div class="header"><h2>{{.Name}} - Price Comparison Alert</h2></div>
  <div class="row">Your listing: {{.MyTitle}} - ${{printf "%.2f" .MyPrice}}</div>
  <div class="row">Competitor: {{.CompetitorTitle}} - ${{printf "%.2f" .CompetitorPrice}}</div>
  <div class="row delta">Difference: ${{printf "%.2f" .Difference}} ({{printf "%.2f" .Percentage}}%), competitor {{.Direction}}</div>
</div></body></html>`))
